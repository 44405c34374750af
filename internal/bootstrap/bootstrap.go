// Package bootstrap connects to the Job Store and Ready Transport at
// process startup with exponential backoff and jitter, grounded on the
// teacher's calculateRetryDelay exponential-backoff-with-full-jitter
// technique (repurposed here since job-retry itself uses no delay).
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Connect retries connect until it succeeds, graceTimeout elapses, or ctx
// is cancelled. name is used only for log messages.
func Connect(ctx context.Context, name string, graceTimeout time.Duration, connect func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, graceTimeout)
	defer cancel()

	backoff := retry.NewExponential(100 * time.Millisecond)
	backoff = retry.WithMaxDuration(graceTimeout, backoff)
	backoff = retry.WithJitterPercent(20, backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if connErr := connect(ctx); connErr != nil {
			slog.WarnContext(ctx, "bootstrap: connection attempt failed, retrying", "target", name, "attempt", attempt, "error", connErr)
			return retry.RetryableError(connErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bootstrap: could not connect to %s after %d attempts within %s: %w", name, attempt, graceTimeout, err)
	}

	slog.InfoContext(ctx, "bootstrap: connected", "target", name, "attempts", attempt)
	return nil
}
