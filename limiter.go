package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/haut-oss/routelimit/internal/clock"
	"github.com/haut-oss/routelimit/internal/state"
)

// Limiter is the built, immutable-routes rate limiter handle. It is safe
// for concurrent use, and Clone returns a handle that shares the same
// underlying cell table: rate limits are a property of the Limiter's
// identity, not of any one caller holding a reference to it.
type Limiter struct {
	routes []Route
	table  *state.Table
	clock  clock.Source
}

// Default returns a Limiter with no configured routes. Every request is
// admitted immediately; useful as a no-op collaborator in tests or as a
// placeholder before configuration is wired in.
func Default() *Limiter {
	return NewBuilder().Build()
}

// Clone returns a handle sharing this Limiter's route table and cell
// state. Wrap each clone in a distinct HTTP client/transport and they
// still enforce one shared budget.
func (l *Limiter) Clone() *Limiter {
	return &Limiter{routes: l.routes, table: l.table, clock: l.clock}
}

// StateCount returns the number of GCRA cells currently tracked. Useful
// for monitoring memory usage; cell count is bounded by the number of
// (route, limit) pairs actually exercised at least once.
func (l *Limiter) StateCount() int {
	return l.table.Len()
}

// Cleanup discards cells that have been fully recovered for at least one
// additional window. It is not called automatically; long-running hosts
// with many distinct routes should call it periodically.
// Safe to call concurrently with Admit.
func (l *Limiter) Cleanup() {
	now := l.clock.Now()

	l.table.Cleanup(now, func(key state.Key) (uint64, bool) {
		if key.RouteIndex < 0 || key.RouteIndex >= len(l.routes) {
			return 0, false
		}

		route := l.routes[key.RouteIndex]
		if key.LimitIndex < 0 || key.LimitIndex >= len(route.Limits) {
			return 0, false
		}

		return uint64(route.Limits[key.LimitIndex].Window), true
	})
}

// Admit walks the route table against (host, method, path), acquiring a
// slot in every matching route's limits. It returns nil once every
// matching cell has admitted the request.
//
// On a Delay-policy rejection it sleeps for the cell's exact wait
// duration plus jitter in [0, wait/2], then restarts the walk from
// scratch: earlier cells already consumed during this attempt are not
// rolled back — only later delays can ever tighten the effective rate,
// never loosen it. On an ErrorOnLimit rejection it returns a
// *RateLimitedError without consuming further cells.
//
// Admit honors ctx cancellation only while sleeping in the Delay branch;
// a cancelled or timed-out context there behaves exactly like a request
// that was never retried — slots already consumed on earlier cells in
// this attempt stand.
func (l *Limiter) Admit(ctx context.Context, host, method, path string) error {
outer:
	for {
		now := l.clock.Now()

		for routeIndex, route := range l.routes {
			if !route.Matches(host, method, path) {
				continue
			}

			for limitIndex, limit := range route.Limits {
				key := state.Key{RouteIndex: routeIndex, LimitIndex: limitIndex}
				cell := l.table.GetOrCreate(key)

				ok, wait := cell.TryAcquire(now, uint64(limit.EmissionInterval()), uint64(limit.Window))
				if ok {
					continue
				}

				routeKey := RouteKey{RouteIndex: routeIndex, LimitIndex: limitIndex}

				if route.OnLimit == ErrorOnLimit {
					return &RateLimitedError{Route: routeKey, Wait: wait}
				}

				if err := sleepWithJitter(ctx, wait); err != nil {
					return err
				}

				continue outer
			}
		}

		return nil
	}
}

// sleepWithJitter sleeps for wait plus a uniformly drawn jitter in
// [0, wait/2], preventing goroutines delayed on the same cell from all
// re-contending the CAS at the same instant. It returns ctx.Err() if ctx
// is cancelled first.
func sleepWithJitter(ctx context.Context, wait time.Duration) error {
	jitterMax := wait / 2

	var jitter time.Duration
	if jitterMax > 0 {
		jitter = time.Duration(rand.Int64N(int64(jitterMax) + 1))
	}

	timer := time.NewTimer(wait + jitter)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
