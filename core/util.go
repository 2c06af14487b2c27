package core

import (
	"time"
)

// Timestamp returns a string representing the current time in
// RFC3339Nano.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// SliceBounds resolves start and stop against a sequence of length n
// the way a slice expression with negative indexes would: negative
// values count from the end, and everything is clamped to [0,n].
func SliceBounds(n, start, stop int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		if i < 0 {
			return 0
		}
		if n < i {
			return n
		}
		return i
	}
	lo, hi := clamp(start), clamp(stop)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
