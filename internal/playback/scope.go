package playback

import (
	"context"
	"sync"
)

// Scope is the lifetime of background work started by the hub. Once
// closed it cannot be reused.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Go runs fn in the background with the scope's context.
func (s *Scope) Go(fn func(ctx context.Context)) {
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Context returns the scope's context.
func (s *Scope) Context() context.Context { return s.ctx }

// Closed reports whether the scope was cancelled.
func (s *Scope) Closed() bool { return s.ctx.Err() != nil }

// Close cancels outstanding work without waiting for it.
func (s *Scope) Close() { s.cancel() }

// Wait blocks until every task started with Go returned.
func (s *Scope) Wait() { s.wg.Wait() }
