// Package sqlstore implements the Job Store (S) on top of database/sql,
// supporting both PostgreSQL and SQLite through the same hand-written SQL
// (no code generation: see DESIGN.md for why sqlc was not used here).
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Config holds database connection configuration. Driver and DSN are set by
// OpenPostgres/OpenSQLite and ignored if passed in; the pool fields fall back
// to Open's defaults when left zero.
type Config struct {
	Driver          string // "pgx" for PostgreSQL, "sqlite" for SQLite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open opens a connection pool per cfg, verifies connectivity, and applies
// pending goose migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}

	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	connMaxLifetime := cfg.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}
	connMaxIdleTime := cfg.ConnMaxIdleTime
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 1 * time.Minute
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}

	if err := runMigrations(db, cfg.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}

	return &Store{db: db, driver: cfg.Driver}, nil
}

func runMigrations(db *sql.DB, driver string) error {
	dialect := "sqlite3"
	if driver == "pgx" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// OpenPostgres opens a PostgreSQL-backed store. cfg's pool fields may be left
// zero to take Open's defaults; Driver and DSN are overwritten from the
// arguments regardless of what cfg carries.
func OpenPostgres(ctx context.Context, connString string, cfg Config) (*Store, error) {
	cfg.Driver = "pgx"
	cfg.DSN = connString
	return Open(ctx, cfg)
}

// OpenSQLite opens a SQLite-backed store using the recommended pragmas for a
// single-writer workload. cfg's pool fields may be left zero to take Open's
// defaults.
func OpenSQLite(ctx context.Context, path string, cfg Config) (*Store, error) {
	cfg.Driver = "sqlite"
	cfg.DSN = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	return Open(ctx, cfg)
}
