package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by Exclusive.Run while another invocation is running.
var ErrBusy = errors.New("crawl already running")

// Exclusive lets the scheduler and manual triggers share one Orchestrator.
// A Run that finds an invocation in flight returns ErrBusy immediately.
type Exclusive struct {
	mu sync.Mutex
	o  *Orchestrator
}

// NewExclusive wraps o.
func NewExclusive(o *Orchestrator) *Exclusive {
	return &Exclusive{o: o}
}

// Run starts an invocation unless one is already running.
func (e *Exclusive) Run(ctx context.Context) (*Report, error) {
	if !e.mu.TryLock() {
		return nil, ErrBusy
	}
	defer e.mu.Unlock()
	return e.o.Run(ctx)
}
