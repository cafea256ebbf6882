package uiloop

import (
	"runtime"
	"sync"
)

var stackBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64)
		return &b
	},
}

// goroutineID parses the current goroutine's id out of runtime.Stack. It is
// only used to detect re-entrant Do calls, never for scheduling. Returns 0
// when the header cannot be parsed.
func goroutineID() int64 {
	bp := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(bp)
	n := runtime.Stack(*bp, false)
	return parseGoroutineID((*bp)[:n])
}

// parseGoroutineID reads the integer following the leading "goroutine "
// of a stack header, without allocating.
func parseGoroutineID(stack []byte) int64 {
	const prefix = "goroutine "
	if len(stack) <= len(prefix) || string(stack[:len(prefix)]) != prefix {
		return 0
	}
	var id int64
	for _, b := range stack[len(prefix):] {
		if b < '0' || b > '9' {
			break
		}
		id = id*10 + int64(b-'0')
	}
	return id
}
