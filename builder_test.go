package ratelimit_test

import (
	"bytes"
	"testing"
	"time"

	routelimit "github.com/haut-oss/routelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Route(t *testing.T) {
	t.Parallel()

	lim := routelimit.NewBuilder().
		Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
			return r.Host("api.example.com").
				Method("POST").
				Path("/order").
				Limit(100, 10*time.Second).
				Limit(1000, time.Minute).
				OnLimit(routelimit.Delay)
		}).
		Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
			return r.Path("/data").Limit(50, 10 * time.Second).OnLimit(routelimit.ErrorOnLimit)
		}).
		Build()

	require.NotNil(t, lim)
}

func TestBuilder_HostScoped(t *testing.T) {
	t.Parallel()

	lim := routelimit.NewBuilder().
		Host("clob.example.com", func(h *routelimit.HostBuilder) *routelimit.HostBuilder {
			return h.
				Route(func(r *routelimit.HostRouteBuilder) *routelimit.HostRouteBuilder {
					return r.Limit(9000, 10 * time.Second)
				}).
				Route(func(r *routelimit.HostRouteBuilder) *routelimit.HostRouteBuilder {
					return r.Path("/book").Limit(1500, 10 * time.Second)
				})
		}).
		Host("data-api.example.com", func(h *routelimit.HostBuilder) *routelimit.HostBuilder {
			return h.Route(func(r *routelimit.HostRouteBuilder) *routelimit.HostRouteBuilder {
				return r.Limit(1000, 10 * time.Second)
			})
		}).
		Build()

	require.NotNil(t, lim)
}

func TestBuilder_MixedStyles(t *testing.T) {
	t.Parallel()

	// A global catch-all route mixed with a host-scoped one.
	lim := routelimit.NewBuilder().
		Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
			return r.Limit(15000, 10 * time.Second)
		}).
		Host("api.example.com", func(h *routelimit.HostBuilder) *routelimit.HostBuilder {
			return h.Route(func(r *routelimit.HostRouteBuilder) *routelimit.HostRouteBuilder {
				return r.Path("/data").Limit(100, 10 * time.Second)
			})
		}).
		Build()

	require.NotNil(t, lim)
}

func TestBuilder_RouteWithoutLimitPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		routelimit.NewBuilder().
			Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
				return r.Path("/test")
			}).
			Build()
	})
}

func TestBuilder_HostRouteWithoutLimitPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		routelimit.NewBuilder().
			Host("api.example.com", func(h *routelimit.HostBuilder) *routelimit.HostBuilder {
				return h.Route(func(r *routelimit.HostRouteBuilder) *routelimit.HostRouteBuilder {
					return r.Path("/test")
				})
			}).
			Build()
	})
}

func TestBuilder_WarnsOnCatchAllBeforeSpecific(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	routelimit.NewBuilder().
		WithLogger(logger).
		Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
			return r.Limit(100, 10 * time.Second) // catch-all
		}).
		Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
			return r.Path("/order").Limit(10, 10 * time.Second)
		}).
		Build()

	require.Contains(t, buf.String(), "catch-all")
}

func TestBuilder_NoWarningWhenSpecificFirst(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	routelimit.NewBuilder().
		WithLogger(logger).
		Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
			return r.Path("/order").Limit(10, 10 * time.Second)
		}).
		Route(func(r *routelimit.RouteBuilder) *routelimit.RouteBuilder {
			return r.Limit(100, 10 * time.Second) // catch-all, but last
		}).
		Build()

	require.Empty(t, buf.String())
}

func TestDefault_StartsWithNoCells(t *testing.T) {
	t.Parallel()

	lim := routelimit.Default()
	require.Equal(t, 0, lim.StateCount())
}
