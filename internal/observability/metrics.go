package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "courier_orders", Name: "orders_created_total", Help: "Total orders created"})
	OrdersCancelled  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "courier_orders", Name: "orders_cancelled_total", Help: "Total orders cancelled by users"})
	OrderLoadFailed  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "courier_orders", Name: "order_load_failures_total", Help: "Total failed order list loads"})
	GeocodeLookups   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "courier_orders", Name: "geocode_lookups_total", Help: "Total geocoding provider lookups"})
	GeocodeCacheHits = promauto.NewCounter(prometheus.CounterOpts{Namespace: "courier_orders", Name: "geocode_cache_hits_total", Help: "Total geocoding cache hits"})

	FeedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "courier_orders", Name: "feed_events_total", Help: "Change feed events by outcome"},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "courier_orders", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courier_orders",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
