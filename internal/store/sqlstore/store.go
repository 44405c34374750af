package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/store"
)

// Store implements store.Store against a database/sql connection pool,
// grounded on the teacher's internal/storage/sql/repository/store.go
// transaction-wrapping and nullable-field-conversion idioms, hand-written
// because the sqlcgen package those files depend on was never retrieved
// into the pack (see DESIGN.md).
type Store struct {
	db     *sql.DB
	driver string // "pgx" or "sqlite"
}

var _ store.Store = (*Store)(nil)

// rebind rewrites "?" placeholders into "$1", "$2", ... for the pgx driver;
// SQLite accepts "?" natively.
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, spec domain.Spec) (*domain.Job, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	job := domain.NewJob(spec, time.Now().UTC())

	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: marshal payload: %w", err)
	}

	query := s.rebind(`
		INSERT INTO jobs (id, name, job_type, payload, priority, estimated_duration, status, retry_count, max_retries, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.ExecContext(ctx, query,
		job.ID, job.Name, job.JobType, string(payload), job.Priority, job.EstimatedDuration,
		string(job.Status), job.RetryCount, job.MaxRetries, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: insert job: %w", err))
	}
	return job, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	query := s.rebind(`
		SELECT id, name, job_type, payload, priority, estimated_duration, status, retry_count, max_retries,
		       result, error, created_at, updated_at, started_at, finished_at
		FROM jobs WHERE id = ?
	`)
	row := s.db.QueryRowContext(ctx, query, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: get job: %w", err))
	}
	return job, nil
}

func (s *Store) List(ctx context.Context, filter store.Filter, page store.Page) (*store.PagedResult, error) {
	where := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.JobType != "" {
		where = append(where, "job_type = ?")
		args = append(args, filter.JobType)
	}
	whereClause := strings.Join(where, " AND ")

	const maxPageSize = 200
	size := page.Size
	if size <= 0 {
		size = 50
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	number := page.Number
	if number <= 0 {
		number = 1
	}
	offset := (number - 1) * size

	var total int
	countQuery := s.rebind(fmt.Sprintf("SELECT COUNT(*) FROM jobs WHERE %s", whereClause))
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: count jobs: %w", err))
	}

	listArgs := append(append([]any{}, args...), size, offset)
	listQuery := s.rebind(fmt.Sprintf(`
		SELECT id, name, job_type, payload, priority, estimated_duration, status, retry_count, max_retries,
		       result, error, created_at, updated_at, started_at, finished_at
		FROM jobs WHERE %s ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, whereClause))
	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: list jobs: %w", err))
	}
	defer rows.Close()

	var items []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, domain.Transient(fmt.Errorf("sqlstore: scan job: %w", err))
		}
		items = append(items, job)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: iterate jobs: %w", err))
	}

	return &store.PagedResult{Items: items, Total: total}, nil
}

func (s *Store) Transition(ctx context.Context, id string, from, to domain.Status, patch store.Patch) (*domain.Job, error) {
	if !domain.CanTransition(from, to) {
		return nil, domain.ConflictError{JobID: id, From: from, To: to, Got: from}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: begin tx: %w", err))
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	set := []string{"status = ?", "updated_at = ?"}
	args := []any{string(to), now}

	if patch.StartedAt != nil {
		set = append(set, "started_at = ?")
		args = append(args, *patch.StartedAt)
	}
	if patch.FinishedAt != nil {
		set = append(set, "finished_at = ?")
		args = append(args, *patch.FinishedAt)
	}
	if patch.Result != nil {
		resultJSON, err := json.Marshal(patch.Result)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: marshal result: %w", err)
		}
		set = append(set, "result = ?")
		args = append(args, string(resultJSON))
	}
	if patch.Error != nil {
		set = append(set, "error = ?")
		args = append(args, *patch.Error)
	}
	if patch.RetryCount != nil {
		set = append(set, "retry_count = ?")
		args = append(args, *patch.RetryCount)
	}

	args = append(args, id, string(from))
	query := s.rebind(fmt.Sprintf("UPDATE jobs SET %s WHERE id = ? AND status = ?", strings.Join(set, ", ")))
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: update job: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: rows affected: %w", err))
	}
	if affected == 0 {
		// Either the row does not exist, or it exists with a different
		// status. Disambiguate with a read inside the same transaction.
		existsQuery := s.rebind("SELECT status FROM jobs WHERE id = ?")
		var current string
		err := tx.QueryRowContext(ctx, existsQuery, id).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, domain.Transient(fmt.Errorf("sqlstore: check current status: %w", err))
		}
		return nil, domain.ConflictError{JobID: id, From: from, To: to, Got: domain.Status(current)}
	}

	getQuery := s.rebind(`
		SELECT id, name, job_type, payload, priority, estimated_duration, status, retry_count, max_retries,
		       result, error, created_at, updated_at, started_at, finished_at
		FROM jobs WHERE id = ?
	`)
	job, err := scanJob(tx.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: reload job: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: commit: %w", err))
	}
	return job, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	query := s.rebind("DELETE FROM jobs WHERE id = ? AND status IN (?, ?)")
	res, err := s.db.ExecContext(ctx, query, id, string(domain.StatusPending), string(domain.StatusScheduled))
	if err != nil {
		return domain.Transient(fmt.Errorf("sqlstore: delete job: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Transient(fmt.Errorf("sqlstore: rows affected: %w", err))
	}
	if affected == 1 {
		return nil
	}

	// Disambiguate not-found vs. wrong-status for the cancel endpoint.
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return domain.ErrConflict
}

// ClaimPending returns PENDING jobs ordered id-ascending on created_at ties.
// Round Robin has no tie-breaking comparator of its own (unlike the FCFS,
// SJF, and Priority heaps) and relies on this claim order for its id-ascending
// guarantee.
func (s *Store) ClaimPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	query := s.rebind(`
		SELECT id, name, job_type, payload, priority, estimated_duration, status, retry_count, max_retries,
		       result, error, created_at, updated_at, started_at, finished_at
		FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, string(domain.StatusPending), limit)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: claim pending: %w", err))
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, domain.Transient(fmt.Errorf("sqlstore: scan pending job: %w", err))
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Recover sweeps SCHEDULED and RUNNING rows back to PENDING at startup
// (SPEC_FULL.md §9): SCHEDULED rows may never have reached the transport,
// and RUNNING rows may belong to a worker that died mid-execution. Neither
// case increments retry_count.
func (s *Store) Recover(ctx context.Context) error {
	query := s.rebind("UPDATE jobs SET status = ?, updated_at = ? WHERE status IN (?, ?)")
	_, err := s.db.ExecContext(ctx, query,
		string(domain.StatusPending), time.Now().UTC(),
		string(domain.StatusScheduled), string(domain.StatusRunning),
	)
	if err != nil {
		return domain.Transient(fmt.Errorf("sqlstore: recover: %w", err))
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	query := "SELECT status, COUNT(*) FROM jobs GROUP BY status"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("sqlstore: stats: %w", err))
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.Transient(fmt.Errorf("sqlstore: scan stats: %w", err))
		}
		counts[domain.Status(status)] = count
	}
	return &store.Stats{CountByStatus: counts}, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job                        domain.Job
		payload, result            sql.NullString
		errText                    sql.NullString
		startedAt, finishedAt      sql.NullTime
		status                     string
	)
	err := row.Scan(
		&job.ID, &job.Name, &job.JobType, &payload, &job.Priority, &job.EstimatedDuration,
		&status, &job.RetryCount, &job.MaxRetries, &result, &errText,
		&job.CreatedAt, &job.UpdatedAt, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = domain.Status(status)
	if errText.Valid {
		job.Error = errText.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &job.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if result.Valid && result.String != "" {
		if err := json.Unmarshal([]byte(result.String), &job.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return &job, nil
}
