package utils

import (
	"sync/atomic"
	"time"
)

var lastID atomic.Uint64

// NewID returns a time-based identifier: the current Unix time in
// milliseconds, bumped past the previous value when two calls land in the
// same millisecond.  Ids are strictly increasing within the process.
func NewID() uint64 {
	for {
		prev := lastID.Load()
		next := uint64(time.Now().UnixMilli())
		if next <= prev {
			next = prev + 1
		}
		if lastID.CompareAndSwap(prev, next) {
			return next
		}
	}
}
