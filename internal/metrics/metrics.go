package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messageboard_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messageboard_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messageboard_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Business metrics
	MessageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messageboard_message_operations_total",
			Help: "Dispatched message operations by outcome",
		},
		[]string{"operation", "status"},
	)

	// Store metrics
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messageboard_store_latency_seconds",
			Help:    "Record store call latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"backend", "operation"},
	)

	// Notification metrics
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messageboard_notifications_total",
			Help: "Notification deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messageboard_notifications_dropped_total",
			Help: "Notifications dropped because the queue was full or closed",
		},
	)
)
