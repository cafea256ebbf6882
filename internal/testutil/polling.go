// Package testutil holds helpers for tests that drive the UI loop and wait
// on asynchronous state such as typesetting upgrades.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is wrapped by the errors Poll and WaitForState return when the
// deadline passes first.
var ErrTimeout = errors.New("testutil: timed out")

// Poll checks condition every interval until it holds, timeout elapses or
// ctx is done.
func Poll(ctx context.Context, condition func() bool, timeout time.Duration, interval time.Duration) error {
	_, err := WaitForState(ctx, condition, func(ok bool) bool { return ok }, timeout, interval)
	return err
}

// WaitForState samples getter every interval and returns the first value
// satisfying predicate. Loop state should be read through Read, e.g.
//
//	mode, err := WaitForState(ctx,
//		func() cell.Mode { return Read(t, loop, ctl.Mode) },
//		func(m cell.Mode) bool { return m == cell.ModeDisplay },
//		time.Second, 5*time.Millisecond)
func WaitForState[T any](ctx context.Context, getter func() T, predicate func(T) bool, timeout time.Duration, interval time.Duration) (T, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var last T
	for {
		last = getter()
		if predicate(last) {
			return last, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-deadline.C:
			var zero T
			return zero, fmt.Errorf("%w after %v; last %T value: %v", ErrTimeout, timeout, last, last)
		case <-tick.C:
		}
	}
}
