package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)
	ConnectionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devfinder_connection_transitions_total",
			Help: "Connection request state transitions",
		},
		[]string{"to"},
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "devfinder_events_published_total", Help: "Domain events published"},
		[]string{"type", "result"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "devfinder_rate_limited_total", Help: "Requests rejected by the rate limiter"},
	)
	SSESubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "devfinder_sse_subscribers", Help: "Open project event streams"},
	)
)

var once sync.Once

// MustRegister registers the collectors with the default registry; safe to call twice.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal, ReqDuration, InFlight,
			ConnectionTransitions, EventsPublished, RateLimited, SSESubscribers,
		)
	})
}

func Handler() http.Handler { return promhttp.Handler() }
