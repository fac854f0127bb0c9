package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	gatewayRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_gateway_requests_total",
		Help: "Total number of requests evaluated by the security gateway",
	})
	gatewayBlockedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_gateway_blocked_total",
		Help: "Total number of requests rejected by the security gateway, by stage",
	}, []string{"stage"})
	eventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_events_dropped_total",
		Help: "Total number of security events dropped due to queue overflow",
	})
	eventsLoggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_events_logged_total",
		Help: "Total number of security events persisted",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(gatewayRequestsTotal, gatewayBlockedTotal, eventsDroppedTotal, eventsLoggedTotal)
}

// IncRequest increments the evaluated requests counter.
func IncRequest() { gatewayRequestsTotal.Inc() }

// IncBlocked increments the rejected requests counter for a pipeline stage
// (block_registry, rate_limit, threat_pattern).
func IncBlocked(stage string) { gatewayBlockedTotal.WithLabelValues(stage).Inc() }

// IncEventDropped increments the dropped events counter.
func IncEventDropped() { eventsDroppedTotal.Inc() }

// IncEventLogged increments the persisted events counter.
func IncEventLogged() { eventsLoggedTotal.Inc() }
