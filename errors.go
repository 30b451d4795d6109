package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitedError is returned by Admit when a matching route has
// ThrottleBehavior ErrorOnLimit and its limit is currently exhausted. Wait
// is the minimum duration after which the same request should succeed;
// the caller may wait longer but not shorter.
type RateLimitedError struct {
	Route RouteKey
	Wait  time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("ratelimit: route %d limit %d exceeded, retry after %s",
		e.Route.RouteIndex, e.Route.LimitIndex, e.Wait)
}
