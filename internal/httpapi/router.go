// Package httpapi is the Submission & Management Interface (H): a thin
// go-chi HTTP surface over the Job Store and Ready Transport, grounded on
// the teacher's internal/http/router.go chi middleware stack.
package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/corewave/jobengine/internal/httpapi/handler"
	mw "github.com/corewave/jobengine/internal/httpapi/middleware"
)

// DefaultMaxBodyBytes is the default maximum request body size (1MiB).
const DefaultMaxBodyBytes = 1 << 20

// Config holds configuration for the HTTP router.
type Config struct {
	MaxBodyBytes int64
}

// NewRouter builds the chi router serving every operation in
// SPEC_FULL.md §6. Applies defaults for zero or invalid config values.
func NewRouter(server *handler.Server, cfg Config) *chi.Mux {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(otelhttp.NewMiddleware("jobengine"))

	r.Get("/health", server.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", server.CreateJob)
		r.Get("/jobs", server.ListJobs)
		r.Get("/jobs/{id}", server.GetJob)
		r.Delete("/jobs/{id}", server.CancelJob)

		r.Get("/stats", server.Stats)

		r.Put("/policy", server.SetPolicy)
		r.Get("/scheduler", server.SchedulerStatus)

		r.Get("/dlq", server.ListDLQ)
	})

	return r
}
