// Package redistransport implements the Ready Transport (T) on Redis,
// grounded on the pack's Redis-backed job queue reference file since the
// teacher repo itself has no message-broker dependency (see DESIGN.md).
package redistransport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/transport"
	"github.com/redis/go-redis/v9"
)

var _ transport.Transport = (*Transport)(nil)

// Transport implements transport.Transport on a single Redis instance.
type Transport struct {
	client *redis.Client
	prefix string

	readyKey      string
	processingKey string
	dlqKey        string
	policyKey     string
}

// Config tunes the underlying Redis connection pool.
type Config struct {
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
}

// New parses redisURL and opens a client tuned for a small number of
// long-lived blocking consumers (the worker pool) plus one writer (the
// engine), following the pool-sizing idiom of the reference queue
// implementation.
func New(redisURL string, keyPrefix string, cfg Config) (*Transport, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redistransport: parse url: %w", err)
	}

	opts.PoolSize = orDefault(cfg.PoolSize, 20)
	opts.DialTimeout = orDefaultDuration(cfg.DialTimeout, 5*time.Second)
	opts.ReadTimeout = orDefaultDuration(cfg.ReadTimeout, 10*time.Second)
	opts.WriteTimeout = orDefaultDuration(cfg.WriteTimeout, 3*time.Second)
	opts.MaxRetries = orDefault(cfg.MaxRetries, 3)
	opts.ContextTimeoutEnabled = true

	client := redis.NewClient(opts)

	if keyPrefix == "" {
		keyPrefix = "jobengine:"
	}
	if !strings.HasSuffix(keyPrefix, ":") {
		keyPrefix += ":"
	}

	return &Transport{
		client:        client,
		prefix:        keyPrefix,
		readyKey:      keyPrefix + "ready",
		processingKey: keyPrefix + "processing",
		dlqKey:        keyPrefix + "dlq",
		policyKey:     keyPrefix + "policy",
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func (t *Transport) Push(ctx context.Context, id string) error {
	if err := t.client.LPush(ctx, t.readyKey, id).Err(); err != nil {
		return domain.Transient(fmt.Errorf("redistransport: push: %w", err))
	}
	return nil
}

// Pop blocks on BRPopLPush, which moves the id onto a processing list, and
// removes it from that list again before returning. The processing list
// therefore keeps no ids for a worker that crashes after Pop returns; such a
// job stays SCHEDULED until the engine's startup Recover sweeps it back to
// PENDING.
func (t *Transport) Pop(ctx context.Context, timeout time.Duration) (string, bool, error) {
	result, err := t.client.BRPopLPush(ctx, t.readyKey, t.processingKey, timeout).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", false, domain.Transient(fmt.Errorf("redistransport: pop: %w", err))
	}
	// The processing marker is dropped here, before the caller's Transition
	// CAS claims the job.
	t.client.LRem(ctx, t.processingKey, 1, result)
	return result, true, nil
}

func (t *Transport) GetPolicy(ctx context.Context) (domain.PolicyName, error) {
	val, err := t.client.Get(ctx, t.policyKey).Result()
	if err == redis.Nil {
		return domain.PolicyFCFS, nil
	}
	if err != nil {
		return "", domain.Transient(fmt.Errorf("redistransport: get policy: %w", err))
	}
	return domain.PolicyName(val), nil
}

func (t *Transport) SetPolicy(ctx context.Context, name domain.PolicyName) error {
	if err := t.client.Set(ctx, t.policyKey, string(name), 0).Err(); err != nil {
		return domain.Transient(fmt.Errorf("redistransport: set policy: %w", err))
	}
	return nil
}

func (t *Transport) AppendDLQ(ctx context.Context, entry domain.DLQEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redistransport: marshal dlq entry: %w", err)
	}
	if err := t.client.LPush(ctx, t.dlqKey, data).Err(); err != nil {
		return domain.Transient(fmt.Errorf("redistransport: append dlq: %w", err))
	}
	return nil
}

func (t *Transport) ListDLQ(ctx context.Context, pageNumber, pageSize int) ([]domain.DLQEntry, int, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageNumber <= 0 {
		pageNumber = 1
	}
	start := int64((pageNumber - 1) * pageSize)
	stop := start + int64(pageSize) - 1

	total, err := t.client.LLen(ctx, t.dlqKey).Result()
	if err != nil {
		return nil, 0, domain.Transient(fmt.Errorf("redistransport: dlq len: %w", err))
	}

	raw, err := t.client.LRange(ctx, t.dlqKey, start, stop).Result()
	if err != nil {
		return nil, 0, domain.Transient(fmt.Errorf("redistransport: dlq range: %w", err))
	}

	entries := make([]domain.DLQEntry, 0, len(raw))
	for _, r := range raw {
		var entry domain.DLQEntry
		if err := json.Unmarshal([]byte(r), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, int(total), nil
}

func (t *Transport) QueueDepth(ctx context.Context) (int, error) {
	n, err := t.client.LLen(ctx, t.readyKey).Result()
	if err != nil {
		return 0, domain.Transient(fmt.Errorf("redistransport: queue depth: %w", err))
	}
	return int(n), nil
}

func (t *Transport) Ping(ctx context.Context) error {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return domain.Transient(fmt.Errorf("redistransport: ping: %w", err))
	}
	return nil
}

func (t *Transport) Close() error {
	return t.client.Close()
}
