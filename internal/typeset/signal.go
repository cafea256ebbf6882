package typeset

import (
	"context"
	"sync"
)

// Signal is a one-shot readiness promise. It settles once, with or without
// an error, and can be probed without blocking.
type Signal struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	err       error
	callbacks []func()
}

// NewSignal returns an unsettled signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Settle resolves the signal. Only the first call has any effect; it returns
// whether this call settled the signal. Callbacks registered with Then run on
// the calling goroutine, in registration order.
func (s *Signal) Settle(err error) bool {
	s.mu.Lock()
	if s.settled {
		s.mu.Unlock()
		return false
	}
	s.settled = true
	s.err = err
	callbacks := s.callbacks
	s.callbacks = nil
	close(s.done)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return true
}

// Settled reports whether the signal has settled. It never blocks.
func (s *Signal) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

// Err returns the settlement error, or nil while unsettled.
func (s *Signal) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the signal settles.
func (s *Signal) Done() <-chan struct{} { return s.done }

// Then runs fn once the signal settles. When it already has, fn runs
// immediately on the caller's goroutine.
func (s *Signal) Then(fn func()) {
	s.mu.Lock()
	if !s.settled {
		s.callbacks = append(s.callbacks, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Wait blocks until the signal settles or ctx is done, returning the
// settlement error or the context's error.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
