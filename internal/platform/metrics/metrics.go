// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	authorsCreated prometheus.Counter
	bookWrites     *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		}, []string{"method", "route"}),
		authorsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalogue_authors_created_total",
			Help: "Authors inserted, explicitly or by reconciliation.",
		}),
		bookWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogue_book_writes_total",
			Help: "Committed book writes by operation.",
		}, []string{"op"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogue_book_cache_lookups_total",
			Help: "Book cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) AuthorCreated() {
	if m == nil {
		return
	}
	m.authorsCreated.Inc()
}

func (m *Metrics) BookWritten(op string) {
	if m == nil {
		return
	}
	m.bookWrites.WithLabelValues(op).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
