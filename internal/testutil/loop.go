package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/joeycumines/mdcell/internal/uiloop"
	"github.com/stretchr/testify/require"
)

// NewLoop starts a UI loop closed at the end of the test.
func NewLoop(t testing.TB, opts ...uiloop.Option) *uiloop.Loop {
	t.Helper()
	l, err := uiloop.New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// OnLoop runs fn on l and fails the test if it errors or the loop stopped.
func OnLoop(t testing.TB, l *uiloop.Loop, fn func()) {
	t.Helper()
	require.NoError(t, l.Do(func() error {
		fn()
		return nil
	}))
}

// Read returns the value fn computes on l.
func Read[T any](t testing.TB, l *uiloop.Loop, fn func() T) T {
	t.Helper()
	var v T
	OnLoop(t, l, func() { v = fn() })
	return v
}

var cellCounter int64

// NewCellID returns a process-unique cell id traceable to the test name.
func NewCellID(prefix, tname string) string {
	id := atomic.AddInt64(&cellCounter, 1)
	return fmt.Sprintf("%s-%s-%d", prefix, strings.ReplaceAll(tname, "/", "-_-"), id)
}
