// Package uiloop provides the single UI thread every notebook component runs
// on, together with cancellable deferred tasks grouped by key.
//
// The loop is a goja_nodejs event loop. Nothing here evaluates JavaScript;
// the loop is used for its job queue and timers, which give the
// run-to-completion and "next turn" semantics cell controllers rely on.
//
// Usage:
//
//	l, err := uiloop.New(ctx)
//	if err != nil { ... }
//	defer l.Close()
//
//	err = l.Do(func() error {
//	    ctrl.Attach(regions)
//	    return nil
//	})
package uiloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

// DefaultSyncTimeout bounds how long Do waits for the loop.
const DefaultSyncTimeout = 5 * time.Second

// ErrStopped is returned when work is submitted to a loop that is not running.
var ErrStopped = errors.New("uiloop: loop not running")

// Loop serializes all UI work onto one goroutine.
type Loop struct {
	loop *eventloop.EventLoop

	// loopGoroutineID is captured at start so Do can run inline when called
	// from a task already executing on the loop.
	loopGoroutineID atomic.Int64

	mu      sync.RWMutex
	started bool
	stopped bool
	groups  map[string]*Group

	afterTask func()
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Loop.
type Option func(*Loop)

// WithAfterTask registers fn to run on the loop after every deferred task.
// Hosts use it to repaint once background continuations have changed state.
func WithAfterTask(fn func()) Option {
	return func(l *Loop) { l.afterTask = fn }
}

// WithLogger sets the logger used for loop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New starts a loop. It stops when ctx is cancelled or Close is called.
func New(ctx context.Context, opts ...Option) (*Loop, error) {
	childCtx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		loop:   eventloop.NewEventLoop(),
		groups: make(map[string]*Group),
		logger: slog.Default(),
		ctx:    childCtx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.loop.Start()
	l.mu.Lock()
	l.started = true
	l.mu.Unlock()

	ready := make(chan struct{})
	if !l.loop.RunOnLoop(func(*goja.Runtime) {
		l.loopGoroutineID.Store(goroutineID())
		close(ready)
	}) {
		cancel()
		return nil, fmt.Errorf("failed to initialize: %w", ErrStopped)
	}
	<-ready

	if ctx.Done() != nil {
		context.AfterFunc(ctx, func() { _ = l.Close() })
	}

	return l, nil
}

// Close stops the loop, waiting for queued jobs. Safe to call repeatedly.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	groups := l.groups
	l.groups = make(map[string]*Group)
	l.mu.Unlock()

	for _, g := range groups {
		g.Close()
	}

	l.cancel()
	l.loop.Stop()
	return nil
}

// Done is closed once the loop has been asked to stop.
func (l *Loop) Done() <-chan struct{} {
	return l.ctx.Done()
}

func (l *Loop) running() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.started && !l.stopped
}

// OnLoop reports whether the caller is executing on the loop goroutine.
func (l *Loop) OnLoop() bool {
	id := l.loopGoroutineID.Load()
	return id > 0 && goroutineID() == id
}

// Do runs fn on the loop and waits for it. Called from the loop itself, fn
// runs inline.
func (l *Loop) Do(fn func() error) error {
	if !l.running() {
		return ErrStopped
	}
	if l.OnLoop() {
		return fn()
	}

	errCh := make(chan error, 1)
	if !l.loop.RunOnLoop(func(*goja.Runtime) { errCh <- fn() }) {
		return ErrStopped
	}

	timer := time.NewTimer(DefaultSyncTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-l.Done():
		return errors.New("uiloop: stopped before completion")
	case <-timer.C:
		return fmt.Errorf("uiloop: operation timed out after %v", DefaultSyncTimeout)
	}
}

// Group returns the task group for key, creating it on first use. Closing a
// group removes it; a later call with the same key returns a fresh group.
func (l *Loop) Group(key string) *Group {
	l.mu.Lock()
	defer l.mu.Unlock()
	if g, ok := l.groups[key]; ok {
		return g
	}
	g := &Group{loop: l, key: key, pending: make(map[uint64]*eventloop.Timer)}
	if l.stopped {
		g.closed = true
		return g
	}
	l.groups[key] = g
	return g
}

func (l *Loop) forget(g *Group) {
	l.mu.Lock()
	if l.groups[g.key] == g {
		delete(l.groups, g.key)
	}
	l.mu.Unlock()
}
