// Package ratelimit implements a client-side, route-aware rate limiter for
// outbound HTTP calls. A table of route patterns (host, method, path
// prefix) is matched against every outgoing request; each matching route
// contributes one or more GCRA cells, and a request is admitted only once
// every matching cell has granted it a slot.
//
// The heavy lifting lives in internal/gcra (the metering cell) and
// internal/state (the concurrent cell table); this package wires them
// together behind a builder and an Admit call. See the transport
// subpackage for the http.RoundTripper adapter that plugs this into a
// standard *http.Client.
package ratelimit

import "time"

// ThrottleBehavior controls what happens when a route's limit is exhausted.
type ThrottleBehavior int

const (
	// Delay suspends the caller until the limit recovers, then re-checks
	// every matching route from scratch. This is the default.
	Delay ThrottleBehavior = iota
	// ErrorOnLimit rejects the request immediately with a RateLimitedError.
	ErrorOnLimit
)

// RateLimit is one requests-per-window cell configuration.
type RateLimit struct {
	Requests uint32
	Window   time.Duration

	emissionInterval time.Duration
}

// NewRateLimit validates and constructs a RateLimit. Requests must be at
// least 1 and Window must be a positive duration that fits in 64-bit
// nanoseconds. Violations panic: these are programmer errors caught at
// configuration time, never runtime-recoverable conditions.
func NewRateLimit(requests uint32, window time.Duration) RateLimit {
	if requests < 1 {
		panic("ratelimit: requests must be at least 1")
	}

	if window <= 0 {
		panic("ratelimit: window must be greater than 0")
	}

	// time.Duration is a signed 64-bit nanosecond count with a ~292 year
	// range, so any positive Duration already fits in a uint64 of
	// nanoseconds; no separate overflow check is reachable here.

	return RateLimit{
		Requests:         requests,
		Window:           window,
		emissionInterval: window / time.Duration(requests),
	}
}

// EmissionInterval is the steady-state spacing between admissions:
// Window / Requests.
func (l RateLimit) EmissionInterval() time.Duration {
	return l.emissionInterval
}

// Route is a match pattern plus the rate limits it contributes.
//
// Host, Method, and PathPrefix use the empty string to mean "any", a
// uniform zero-value-means-unconstrained rule across all three fields.
type Route struct {
	Host       string
	Method     string
	PathPrefix string
	Limits     []RateLimit
	OnLimit    ThrottleBehavior
}

// IsCatchAll reports whether the route has no host, method, or path
// constraint, and therefore matches every request.
func (r Route) IsCatchAll() bool {
	return r.Host == "" && r.Method == "" && r.PathPrefix == ""
}

// RouteKey identifies one (route, limit) pair's cell within a built
// Limiter's route table.
type RouteKey struct {
	RouteIndex int
	LimitIndex int
}
