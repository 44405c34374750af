// Package handlers provides the three reference job payload implementations
// named in SPEC_FULL.md §4.6. They exist to exercise the worker pool end to
// end and to support the testable-property scenarios; real payload
// implementations remain out of scope.
package handlers

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/worker"
)

// Sleep honors {duration_ms, fail_probability?}. It sleeps for duration_ms,
// respecting ctx cancellation, then fails with the given probability
// (default 0).
func Sleep(ctx context.Context, payload map[string]any) (map[string]any, error) {
	durationMS, _ := payload["duration_ms"].(float64)
	failProbability, _ := payload["fail_probability"].(float64)

	select {
	case <-time.After(time.Duration(durationMS) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if failProbability > 0 && randFloat() < failProbability {
		return nil, domain.HandlerFailure{JobType: "sleep", Err: fmt.Errorf("simulated failure (p=%.2f)", failProbability), Retryable: true}
	}
	return map[string]any{"slept_ms": durationMS}, nil
}

func randFloat() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return 0
	}
	return float64(n.Int64()) / 1_000_000
}

// WordCount honors {text}. It is pure and deterministic, failing only when
// text is missing.
func WordCount(ctx context.Context, payload map[string]any) (map[string]any, error) {
	text, ok := payload["text"].(string)
	if !ok {
		return nil, domain.HandlerFailure{JobType: "wordcount", Err: fmt.Errorf("payload missing required field %q", "text"), Retryable: false}
	}
	words := 0
	if strings.TrimSpace(text) != "" {
		words = len(strings.Fields(text))
	}
	return map[string]any{
		"word_count": words,
		"char_count": len(text),
	}, nil
}

// Thumbnail honors {source_url, max_width}. It validates inputs and returns
// a synthetic result without performing real image I/O.
func Thumbnail(ctx context.Context, payload map[string]any) (map[string]any, error) {
	sourceURL, ok := payload["source_url"].(string)
	if !ok || sourceURL == "" {
		return nil, domain.HandlerFailure{JobType: "thumbnail", Err: fmt.Errorf("payload missing required field %q", "source_url"), Retryable: false}
	}
	maxWidth, _ := payload["max_width"].(float64)
	if maxWidth <= 0 {
		maxWidth = 128
	}
	return map[string]any{
		"thumbnail_url": fmt.Sprintf("%s?w=%d", sourceURL, int(maxWidth)),
	}, nil
}

// Default builds the reference registry used by cmd/worker.
func Default() worker.Registry {
	return worker.NewRegistry(map[string]worker.Handler{
		"sleep":     Sleep,
		"wordcount": WordCount,
		"thumbnail": Thumbnail,
	})
}
