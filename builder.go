package ratelimit

import (
	"time"

	"github.com/haut-oss/routelimit/internal/clock"
	"github.com/haut-oss/routelimit/internal/state"
	"github.com/rs/zerolog"
)

// Builder accumulates Routes and builds a Limiter. The zero value is not
// usable; construct one with NewBuilder.
type Builder struct {
	routes []Route
	logger zerolog.Logger
}

// NewBuilder returns an empty Builder. Logging defaults to zerolog.Nop()
// until WithLogger is called.
func NewBuilder() *Builder {
	return &Builder{logger: zerolog.Nop()}
}

// WithLogger attaches a logger used for build-time diagnostics, such as
// the catch-all ordering warning.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// Route adds one route, configured via the closure. Panics if no limit
// was added via RouteBuilder.Limit — a route with zero limits is a
// programmer bug, not a runtime condition.
func (b *Builder) Route(configure func(*RouteBuilder) *RouteBuilder) *Builder {
	rb := configure(&RouteBuilder{})
	b.routes = append(b.routes, rb.build())

	return b
}

// AddRoute appends a pre-built Route directly.
func (b *Builder) AddRoute(route Route) *Builder {
	b.routes = append(b.routes, route)
	return b
}

// Host scopes a group of routes to a single host, so the host string
// doesn't need repeating on every route.
func (b *Builder) Host(host string, configure func(*HostBuilder) *HostBuilder) *Builder {
	hb := configure(&HostBuilder{host: host})
	b.routes = append(b.routes, hb.routes...)

	return b
}

// Build validates that every accumulated route has at least one limit
// (panicking otherwise, including for routes added via AddRoute),
// optionally logs a warning about catch-all route ordering, and returns
// the built Limiter. Routes are immutable after this call.
func (b *Builder) Build() *Limiter {
	for _, route := range b.routes {
		if len(route.Limits) == 0 {
			panic("ratelimit: route must have at least one limit configured via Limit")
		}
	}

	b.warnCatchAllOrder()

	routes := make([]Route, len(b.routes))
	copy(routes, b.routes)

	return &Limiter{
		routes: routes,
		table:  state.New(),
		clock:  clock.New(),
	}
}

// warnCatchAllOrder logs one warning per catch-all route that precedes a
// more specific route: the catch-all's limits will apply to requests the
// caller probably meant to scope to the specific route. This is a
// diagnostic only — mixed layering is legitimate and both routes' limits
// still apply.
func (b *Builder) warnCatchAllOrder() {
	for catchAllIndex, route := range b.routes {
		if !route.IsCatchAll() {
			continue
		}

		for specificIndex := catchAllIndex + 1; specificIndex < len(b.routes); specificIndex++ {
			if b.routes[specificIndex].IsCatchAll() {
				continue
			}

			b.logger.Warn().
				Int("catch_all_route_index", catchAllIndex).
				Int("specific_route_index", specificIndex).
				Msg("catch-all route precedes a more specific route; both routes' limits will apply")

			break
		}
	}
}

// RouteBuilder configures a single route added via Builder.Route.
type RouteBuilder struct {
	host       string
	method     string
	pathPrefix string
	limits     []RateLimit
	onLimit    ThrottleBehavior
}

// Host sets the route's host constraint (empty means any).
func (rb *RouteBuilder) Host(host string) *RouteBuilder {
	rb.host = host
	return rb
}

// Method sets the route's HTTP method constraint (empty means any).
func (rb *RouteBuilder) Method(method string) *RouteBuilder {
	rb.method = method
	return rb
}

// Path sets the route's path prefix (empty means any, matched with
// segment-boundary semantics otherwise).
func (rb *RouteBuilder) Path(pathPrefix string) *RouteBuilder {
	rb.pathPrefix = pathPrefix
	return rb
}

// Limit adds a rate limit to the route. Multiple calls stack burst and
// sustained limits on the same route.
func (rb *RouteBuilder) Limit(requests uint32, window time.Duration) *RouteBuilder {
	rb.limits = append(rb.limits, NewRateLimit(requests, window))
	return rb
}

// OnLimit sets the behavior when this route's limit is exceeded.
func (rb *RouteBuilder) OnLimit(behavior ThrottleBehavior) *RouteBuilder {
	rb.onLimit = behavior
	return rb
}

func (rb *RouteBuilder) build() Route {
	if len(rb.limits) == 0 {
		panic("ratelimit: route must have at least one limit configured via Limit")
	}

	return Route{
		Host:       rb.host,
		Method:     rb.method,
		PathPrefix: rb.pathPrefix,
		Limits:     rb.limits,
		OnLimit:    rb.onLimit,
	}
}

// HostBuilder configures routes scoped to one host, created by
// Builder.Host.
type HostBuilder struct {
	host   string
	routes []Route
}

// Route adds a route within this host scope. The host is set
// automatically on every route added this way.
func (hb *HostBuilder) Route(configure func(*HostRouteBuilder) *HostRouteBuilder) *HostBuilder {
	rb := configure(&HostRouteBuilder{})

	if len(rb.limits) == 0 {
		panic("ratelimit: route must have at least one limit configured via Limit")
	}

	hb.routes = append(hb.routes, Route{
		Host:       hb.host,
		Method:     rb.method,
		PathPrefix: rb.pathPrefix,
		Limits:     rb.limits,
		OnLimit:    rb.onLimit,
	})

	return hb
}

// HostRouteBuilder configures a single route within a HostBuilder scope;
// it has no Host method since the host is fixed by the enclosing scope.
type HostRouteBuilder struct {
	method     string
	pathPrefix string
	limits     []RateLimit
	onLimit    ThrottleBehavior
}

// Method sets the route's HTTP method constraint (empty means any).
func (rb *HostRouteBuilder) Method(method string) *HostRouteBuilder {
	rb.method = method
	return rb
}

// Path sets the route's path prefix (empty means any).
func (rb *HostRouteBuilder) Path(pathPrefix string) *HostRouteBuilder {
	rb.pathPrefix = pathPrefix
	return rb
}

// Limit adds a rate limit to the route.
func (rb *HostRouteBuilder) Limit(requests uint32, window time.Duration) *HostRouteBuilder {
	rb.limits = append(rb.limits, NewRateLimit(requests, window))
	return rb
}

// OnLimit sets the behavior when this route's limit is exceeded.
func (rb *HostRouteBuilder) OnLimit(behavior ThrottleBehavior) *HostRouteBuilder {
	rb.onLimit = behavior
	return rb
}
