// Package transport adapts a ratelimit.Limiter into an http.RoundTripper,
// the idiomatic Go shape for a client-side request interceptor (grounded
// on the RateLimitTransport pattern used to wrap a token bucket around an
// outbound *http.Client in this corpus). Wrap it around the transport you
// would otherwise hand to http.Client.Transport; every outgoing request
// is admitted before it reaches the wrapped transport.
package transport

import (
	"errors"
	"net/http"

	routelimit "github.com/haut-oss/routelimit"
	"github.com/rs/zerolog"
)

// Transport enforces a Limiter's routes on every request it round-trips,
// then forwards to Next (defaulting to http.DefaultTransport).
type Transport struct {
	Limiter *routelimit.Limiter
	Next    http.RoundTripper
	Logger  zerolog.Logger
}

// New wraps next with limiter's admission check. A nil next falls back
// to http.DefaultTransport.
func New(limiter *routelimit.Limiter, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}

	return &Transport{Limiter: limiter, Next: next, Logger: zerolog.Nop()}
}

// RoundTrip admits req against the limiter's route table and, on success,
// forwards to Next. A RateLimitedError from the limiter is returned
// unchanged so callers can unwrap it with errors.As; context cancellation
// during a Delay wait surfaces as ctx.Err().
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Admit(req.Context(), req.URL.Hostname(), req.Method, req.URL.Path); err != nil {
		var limited *routelimit.RateLimitedError
		if errors.As(err, &limited) {
			t.Logger.Debug().
				Int("route_index", limited.Route.RouteIndex).
				Int("limit_index", limited.Route.LimitIndex).
				Dur("wait", limited.Wait).
				Msg("request rejected by rate limiter")
		}

		return nil, err
	}

	return t.Next.RoundTrip(req)
}
