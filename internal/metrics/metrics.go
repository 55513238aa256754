// Package metrics exposes Prometheus collectors for engine operations and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irfndi/quantsim-go/internal/utils"
)

const namespace = "quantsim"

// Outcome labels for engine operations.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics owns a private registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	simulations        *prometheus.CounterVec
	simulationDuration *prometheus.HistogramVec
	monteCarloPaths    prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Engine operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		simulationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Engine operation latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"operation"}),
		monteCarloPaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monte_carlo_paths_total",
			Help:      "Paths simulated by successful Monte Carlo pricings.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.simulations,
		m.simulationDuration,
		m.monteCarloPaths,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Outcome classifies an engine error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case utils.IsClientError(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// ObserveSimulation records one engine operation.
func (m *Metrics) ObserveSimulation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.simulations.WithLabelValues(operation, Outcome(err)).Inc()
	m.simulationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddMonteCarloPaths counts paths of a completed Monte Carlo run.
func (m *Metrics) AddMonteCarloPaths(paths uint32) {
	if m == nil {
		return
	}
	m.monteCarloPaths.Add(float64(paths))
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
