package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "inventory"

// Metrics holds the API collectors. A nil *Metrics, or one built without a
// registerer, records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited prometheus.Counter
	cache       *prometheus.CounterVec
}

// New registers the API metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "metrics_cache_lookups_total",
		Help:      "Store metrics cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(requests, duration, rateLimited, cache)
	return &Metrics{
		requests:    requests,
		duration:    duration,
		rateLimited: rateLimited,
		cache:       cache,
	}
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncRateLimited counts a rejected request.
func (m *Metrics) IncRateLimited() {
	if m == nil || m.rateLimited == nil {
		return
	}
	m.rateLimited.Inc()
}

// CacheLookup counts a metrics cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil || m.cache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// Unmatched routes share one label so path scans cannot blow up cardinality.
func normalizeLabel(route string) string {
	if route == "" {
		return "unmatched"
	}
	return route
}
