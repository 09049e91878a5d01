package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_mutations_total",
		Help: "Applied ledger mutations by entity and operation.",
	}, []string{"entity", "operation"})

	mutationRevertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_mutation_reverts_total",
		Help: "Optimistic mutations reverted after a store failure.",
	})

	changeEventsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_change_events_applied_total",
		Help: "Remote change events merged into the snapshot.",
	})

	changeEventsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_change_events_suppressed_total",
		Help: "Remote change events dropped as duplicates of local state.",
	})
)

func recordMutation(entity EntityKind, op EventType) {
	mutationsTotal.WithLabelValues(string(entity), string(op)).Inc()
}

func recordRevert() {
	mutationRevertsTotal.Inc()
}

func recordEventApplied() {
	changeEventsAppliedTotal.Inc()
}

func recordEventSuppressed() {
	changeEventsSuppressedTotal.Inc()
}

// metricsMiddleware records request counts and latency per route. The route
// template (not the raw path) keys the labels so ids do not explode
// cardinality.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
