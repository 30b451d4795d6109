// Package gcra implements the Generic Cell Rate Algorithm: a single-word,
// lock-free rate limiter state. It tracks a Theoretical Arrival Time (TAT)
// instead of a token count, which makes a cell cheap to keep around per
// route/limit pair and safe to share across goroutines without a mutex.
package gcra

import (
	"sync/atomic"
	"time"
)

// State is one GCRA cell. The zero value is a cell that has fully
// recovered (tat == 0), ready to admit a fresh burst.
type State struct {
	tat atomic.Uint64 // theoretical arrival time, nanoseconds since a fixed epoch
}

// New returns a freshly recovered cell.
func New() *State {
	return &State{}
}

// TAT returns the current theoretical arrival time, for monitoring and
// eviction decisions. It uses acquire ordering, consistent with TryAcquire.
func (s *State) TAT() uint64 {
	return s.tat.Load()
}

// TryAcquire consumes one conceptual request slot at time now (nanoseconds
// since the cell's epoch), given the limit's emission interval and window,
// both in nanoseconds.
//
// It reports ok=true when the slot was granted (tat has been advanced).
// On rejection it reports the exact duration the caller must wait before a
// retry at an unchanged state would succeed, and leaves tat untouched.
//
// All arithmetic saturates rather than wrapping, so a pathological window
// or an initial tat of 0 can never underflow/overflow the uint64 range.
func (s *State) TryAcquire(now, emissionInterval, window uint64) (ok bool, wait time.Duration) {
	for {
		tat := s.tat.Load()

		var newTAT uint64
		if tat <= now {
			newTAT = saturatingAdd(now, emissionInterval)
		} else {
			newTAT = saturatingAdd(tat, emissionInterval)
		}

		ceiling := saturatingAdd(now, window)
		if newTAT > ceiling {
			return false, time.Duration(newTAT - ceiling)
		}

		if s.tat.CompareAndSwap(tat, newTAT) {
			return true, 0
		}
		// Lost the race to another acquirer; reread tat and retry.
	}
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}

	return sum
}
