// Package metrics exposes Prometheus collectors for the empresasbrasil service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec
	monitorProbesTotal           *prometheus.CounterVec
	systemMode                   prometheus.Gauge
	emailSentTotal               *prometheus.CounterVec
	companySearchDurationSeconds *prometheus.HistogramVec
	rateLimitedRequestsTotal     *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)

		monitorProbesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitor_probes_total",
				Help: "Total number of database connectivity probes, labeled by result.",
			},
			[]string{"result"},
		)

		systemMode = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "system_mode",
				Help: "Current connection mode: 0 for OFFLINE, 1 for RAILWAY.",
			},
		)

		emailSentTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "email_sent_total",
				Help: "Total number of email delivery attempts, labeled by provider and result.",
			},
			[]string{"provider", "result"},
		)

		companySearchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "company_search_duration_seconds",
				Help:    "Histogram of company search latencies, labeled by data source.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		)

		rateLimitedRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter, labeled by route.",
			},
			[]string{"route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveProbe counts a connectivity probe.
func ObserveProbe(ok bool) {
	monitorProbesTotal.WithLabelValues(result(ok)).Inc()
}

// SetMode records the connection mode; railway is true once the database is live.
func SetMode(railway bool) {
	if railway {
		systemMode.Set(1)
		return
	}
	systemMode.Set(0)
}

// ObserveEmail counts one provider attempt.
func ObserveEmail(provider string, ok bool) {
	emailSentTotal.WithLabelValues(provider, result(ok)).Inc()
}

// ObserveSearch records how long a company search took against source.
func ObserveSearch(source string, duration time.Duration) {
	companySearchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveRateLimited counts a rejected request.
func ObserveRateLimited(route string) {
	rateLimitedRequestsTotal.WithLabelValues(route).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
