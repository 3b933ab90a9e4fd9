// Package metrics registers the service's Prometheus collectors. Collectors
// live on the default registry and are exposed by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shorturl"

var (
	// Allocations counts allocation attempts by outcome: success, invalid,
	// taken, exhausted, error.
	Allocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "allocator",
		Name:      "allocations_total",
		Help:      "Short code allocation attempts by outcome.",
	}, []string{"outcome"})

	// CodeCollisions counts random candidates rejected because the code
	// was already reserved.
	CodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "allocator",
		Name:      "collisions_total",
		Help:      "Random short code candidates that collided with an existing code.",
	})

	// Redirects counts resolution attempts by outcome: success, not_found,
	// store_error.
	Redirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolver",
		Name:      "redirects_total",
		Help:      "Short code resolutions by outcome.",
	}, []string{"outcome"})

	// CacheRequests counts cache lookups by layer (memory, redis) and
	// result (hit, miss).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "URL cache lookups by layer and result.",
	}, []string{"layer", "result"})

	// ClickEventsDropped counts click events lost to backpressure or
	// publish failures. Together with one unflushed batch this is the
	// documented click loss bound.
	ClickEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "clicks",
		Name:      "dropped_total",
		Help:      "Click events dropped before reaching the store.",
	})

	// ClickEventsFlushed counts click events successfully written to the
	// store.
	ClickEventsFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "clicks",
		Name:      "flushed_total",
		Help:      "Click events written to the store.",
	})
)
