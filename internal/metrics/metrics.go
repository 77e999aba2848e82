// Package metrics exposes Prometheus telemetry for schedule generation,
// validation, sync runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodycal/custody-engine/internal/domain"
)

// Collector implements custody.Recorder and calsync.Recorder.
type Collector struct {
	registry *prometheus.Registry

	generations        prometheus.Counter
	generationLatency  prometheus.Histogram
	eventsEmitted      prometheus.Counter
	eventsDropped      prometheus.Counter
	diagnostics        *prometheus.CounterVec
	validations        *prometheus.CounterVec
	syncRuns           *prometheus.CounterVec
	syncChanges        *prometheus.CounterVec
	syncLatency        prometheus.Histogram
	httpRequests       *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "custody"
	}
	c := &Collector{registry: prometheus.NewRegistry()}

	c.generations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "generations_total",
		Help:      "Total number of schedule generations.",
	})
	c.generationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "generation_duration_seconds",
		Help:      "Time taken to expand and resolve a rule set.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})
	c.eventsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "events_total",
		Help:      "Total number of resolved custody events returned.",
	})
	c.eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "events_dropped_total",
		Help:      "Total number of candidate events overridden by higher precedence.",
	})
	c.diagnostics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "diagnostics_total",
		Help:      "Diagnostics emitted during generation.",
	}, []string{"code", "severity"})
	c.validations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "validation",
		Name:      "runs_total",
		Help:      "Validation runs by target kind and outcome.",
	}, []string{"kind", "passed"})
	c.syncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Calendar sync runs by outcome.",
	}, []string{"success"})
	c.syncChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "changes_total",
		Help:      "Calendar entries changed by sync runs.",
	}, []string{"op"})
	c.syncLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "run_duration_seconds",
		Help:      "Duration of calendar sync runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})
	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})
	c.httpRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "path"})

	c.registry.MustRegister(
		c.generations, c.generationLatency, c.eventsEmitted, c.eventsDropped, c.diagnostics,
		c.validations, c.syncRuns, c.syncChanges, c.syncLatency,
		c.httpRequests, c.httpRequestLatency,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveGeneration(rules, events, dropped int, elapsed time.Duration) {
	c.generations.Inc()
	c.generationLatency.Observe(elapsed.Seconds())
	c.eventsEmitted.Add(float64(events))
	c.eventsDropped.Add(float64(dropped))
}

func (c *Collector) ObserveDiagnostics(diags []domain.Diagnostic) {
	for _, d := range diags {
		c.diagnostics.WithLabelValues(d.Code, string(d.Severity)).Inc()
	}
}

func (c *Collector) ObserveValidation(kind string, passed bool) {
	c.validations.WithLabelValues(kind, strconv.FormatBool(passed)).Inc()
}

func (c *Collector) ObserveSync(res domain.SyncResult, elapsed time.Duration) {
	c.syncRuns.WithLabelValues(strconv.FormatBool(res.Success())).Inc()
	c.syncChanges.WithLabelValues("create").Add(float64(res.Created))
	c.syncChanges.WithLabelValues("update").Add(float64(res.Updated))
	c.syncChanges.WithLabelValues("delete").Add(float64(res.Deleted))
	c.syncLatency.Observe(elapsed.Seconds())
}

// ObserveHTTP records one handled request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestLatency.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
