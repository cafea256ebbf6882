package uiloop

import (
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

// Group is a set of deferred tasks owned by one key (a cell id). Closing the
// group cancels every pending task and makes later Defer calls no-ops, so a
// disposed owner never sees its continuations run.
type Group struct {
	loop *Loop
	key  string

	mu      sync.Mutex
	next    uint64
	pending map[uint64]*eventloop.Timer
	closed  bool
}

// Key returns the group's key.
func (g *Group) Key() string { return g.key }

// Defer runs fn on the loop on a later turn than the current one. The
// returned cancel func is idempotent. Safe from any goroutine.
func (g *Group) Defer(fn func()) (cancel func()) {
	g.mu.Lock()
	if g.closed || !g.loop.running() {
		g.mu.Unlock()
		return func() {}
	}
	g.next++
	id := g.next
	// The timer is registered under the lock so the task cannot observe a
	// missing entry, even if it fires before SetTimeout returns.
	g.pending[id] = g.loop.loop.SetTimeout(func(*goja.Runtime) { g.run(id, fn) }, 0)
	g.mu.Unlock()

	return func() { g.cancel(id) }
}

func (g *Group) run(id uint64, fn func()) {
	g.mu.Lock()
	_, ok := g.pending[id]
	delete(g.pending, id)
	closed := g.closed
	g.mu.Unlock()
	if !ok || closed {
		return
	}

	fn()

	if g.loop.afterTask != nil {
		g.loop.afterTask()
	}
}

func (g *Group) cancel(id uint64) {
	g.mu.Lock()
	t, ok := g.pending[id]
	delete(g.pending, id)
	g.mu.Unlock()
	if ok && t != nil {
		g.loop.loop.ClearTimeout(t)
	}
}

// Pending returns the number of tasks queued and not yet run or cancelled.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Close cancels all pending tasks and rejects new ones.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	timers := g.pending
	g.pending = make(map[uint64]*eventloop.Timer)
	g.mu.Unlock()

	for _, t := range timers {
		if t != nil {
			g.loop.loop.ClearTimeout(t)
		}
	}
	g.loop.forget(g)
	g.loop.logger.Debug("uiloop: task group closed", "key", g.key, "cancelled", len(timers))
}
