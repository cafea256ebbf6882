package uiloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoop(t *testing.T, opts ...Option) *Loop {
	t.Helper()
	l, err := New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// flush waits until every job queued before the call has run.
func flush(t *testing.T, l *Loop) {
	t.Helper()
	require.NoError(t, l.Do(func() error { return nil }))
}

func TestParseGoroutineID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(42), parseGoroutineID([]byte("goroutine 42 [running]:\nmain.main()")))
	assert.Equal(t, int64(0), parseGoroutineID([]byte("routine 42")))
	assert.Equal(t, int64(0), parseGoroutineID(nil))
	assert.NotZero(t, goroutineID())
}

func TestDo_RunsOnLoopAndInlineWhenReentrant(t *testing.T) {
	t.Parallel()
	l := newTestLoop(t)

	assert.False(t, l.OnLoop())

	var nested bool
	err := l.Do(func() error {
		require.True(t, l.OnLoop())
		return l.Do(func() error {
			nested = true
			return nil
		})
	})
	require.NoError(t, err)
	assert.True(t, nested)
}

func TestDo_AfterClose(t *testing.T) {
	t.Parallel()
	l := newTestLoop(t)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Do(func() error { return nil }), ErrStopped)
	late := l.Group("late")
	late.Defer(func() { t.Error("ran after close") })
	assert.Zero(t, late.Pending())
}

func TestGroup_DeferRunsOnLaterTurn(t *testing.T) {
	t.Parallel()
	l := newTestLoop(t)
	g := l.Group("cell-1")

	done := make(chan []string, 1)
	var order []string
	require.NoError(t, l.Do(func() error {
		g.Defer(func() {
			order = append(order, "deferred")
			done <- order
		})
		order = append(order, "same turn")
		return nil
	}))

	select {
	case got := <-done:
		assert.Equal(t, []string{"same turn", "deferred"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("deferred task never ran")
	}
	assert.Zero(t, g.Pending())
}

func TestGroup_CancelAndClose(t *testing.T) {
	t.Parallel()
	var repaint atomic.Int32
	l := newTestLoop(t, WithAfterTask(func() { repaint.Add(1) }))
	g := l.Group("cell-1")

	var ran atomic.Int32
	require.NoError(t, l.Do(func() error {
		cancel := g.Defer(func() { ran.Add(1) })
		cancel()
		cancel()
		g.Defer(func() { ran.Add(1) })
		g.Defer(func() { ran.Add(1) })
		assert.Equal(t, 2, g.Pending())
		l.Group("cell-1").Close()
		g.Defer(func() { ran.Add(1) })
		return nil
	}))

	time.Sleep(20 * time.Millisecond)
	flush(t, l)
	assert.Zero(t, ran.Load())
	assert.Zero(t, repaint.Load())
	assert.Zero(t, g.Pending())

	fresh := l.Group("cell-1")
	assert.NotSame(t, g, fresh)
	done := make(chan struct{})
	fresh.Defer(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fresh group task never ran")
	}
	flush(t, l)
	assert.Equal(t, int32(1), repaint.Load())
}

func TestNew_StopsWithContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	l, err := New(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop with its context")
	}
}
