// Package metrics exposes screener telemetry as Prometheus collectors on a dedicated registry.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ternarybob/screener/internal/models"
)

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector holds every screener metric.
type Collector struct {
	registry *prometheus.Registry

	FetchTotal        *prometheus.CounterVec
	FetchAttempts     *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	CacheEvents       *prometheus.CounterVec
	Screenings        *prometheus.CounterVec
	CriterionFailures *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

// NewCollector creates and registers the screener metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_fetch_total",
				Help: "Completed ticker fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),

		FetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_fetch_attempts_total",
				Help: "Upstream fetch attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_fetch_duration_seconds",
				Help:    "Wall time of a ticker fetch including spacing and retries",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),

		CacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_cache_events_total",
				Help: "Fetch cache events (hit, miss, expired, read_error, write, write_error)",
			},
			[]string{"event"},
		),

		Screenings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_screenings_total",
				Help: "Screened tickers by status",
			},
			[]string{"status"},
		),

		CriterionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_criterion_failures_total",
				Help: "Failed criteria by key",
			},
			[]string{"key"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	c.registry.MustRegister(
		c.FetchTotal,
		c.FetchAttempts,
		c.FetchDuration,
		c.CacheEvents,
		c.Screenings,
		c.CriterionFailures,
		c.HTTPRequests,
	)
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// FetchAttempt records one upstream attempt.
func (c *Collector) FetchAttempt(provider string, err error) {
	c.FetchAttempts.WithLabelValues(provider, outcome(err == nil)).Inc()
}

// FetchCompleted records a finished fetch.
func (c *Collector) FetchCompleted(result models.FetchResult, elapsed time.Duration) {
	source := string(result.Source)
	c.FetchTotal.WithLabelValues(source, outcome(result.OK())).Inc()
	c.FetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// CacheEvent records a fetch cache event.
func (c *Collector) CacheEvent(event string) {
	c.CacheEvents.WithLabelValues(event).Inc()
}

// Screened records a screening verdict and its failed criteria.
func (c *Collector) Screened(result models.ScreeningResult) {
	c.Screenings.WithLabelValues(string(result.Status)).Inc()
	for _, failure := range result.Failures {
		c.CriterionFailures.WithLabelValues(FailureKey(failure)).Inc()
	}
}

// FailureKey extracts the criterion key from a failure description such as
// "pe_max: pe_ratio_above_max (30.00 > 25.00)". Markers without a key are returned as is.
func FailureKey(description string) string {
	if i := strings.Index(description, ":"); i > 0 {
		return description[:i]
	}
	return description
}

// HTTPRequest records a served request.
func (c *Collector) HTTPRequest(path string, status int) {
	c.HTTPRequests.WithLabelValues(RouteLabel(path), strconv.Itoa(status)).Inc()
}

// RouteLabel keeps at most the first two path segments so ids do not become labels:
// "/api/environments/abc/run" -> "/api/environments".
func RouteLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "/" + strings.Join(parts, "/")
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
