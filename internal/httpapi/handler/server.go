// Package handler implements the nine operations of SPEC_FULL.md §6 as
// plain chi handlers over the Job Store and Ready Transport.
package handler

import (
	"github.com/corewave/jobengine/internal/domain"
	"github.com/corewave/jobengine/internal/store"
	"github.com/corewave/jobengine/internal/transport"
)

// SchedulerStatuser reports the scheduler engine's current policy and
// in-memory queue depth, satisfied by *engine.Engine.
type SchedulerStatuser interface {
	Status() (domain.PolicyName, int)
}

// Server is the HTTP-facing dependency bag for every handler in this
// package, grounded on the teacher's handler.Server shape.
type Server struct {
	store     store.Store
	transport transport.Transport
	scheduler SchedulerStatuser
	poolSize  int

	defaultPageSize int
	maxPageSize     int
}

// NewServer constructs a Server. defaultPageSize/maxPageSize of zero fall
// back to 50/200.
func NewServer(s store.Store, t transport.Transport, scheduler SchedulerStatuser, poolSize, defaultPageSize, maxPageSize int) *Server {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	if maxPageSize <= 0 {
		maxPageSize = 200
	}
	return &Server{
		store:           s,
		transport:       t,
		scheduler:       scheduler,
		poolSize:        poolSize,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}
