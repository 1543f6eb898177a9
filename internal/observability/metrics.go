// Package observability exposes Prometheus metrics for the HTTP surface and
// the todo store.
package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todoboard/internal/todo"
)

const (
	namespace       = "todoboard"
	unmatchedRoute  = "unmatched"
	collectDeadline = 2 * time.Second
)

// Metrics holds the HTTP collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP collectors, the Go and process collectors and,
// when store is non-nil, a gauge of todos per status.
func NewMetrics(store todo.Store) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, matched route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and matched route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if store != nil {
		m.registry.MustRegister(NewTodoCollector(store))
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency. It must wrap the ServeMux
// directly so the matched pattern is visible on the request after dispatch.
// A panicking request is counted as a 500 before the panic propagates.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := NewStatusWriter(w)
		panicked := true
		defer func() {
			code := sw.Status()
			if panicked {
				code = http.StatusInternalServerError
			}
			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			m.requests.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
			m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}()
		next.ServeHTTP(sw, r)
		panicked = false
	})
}

// TodoCollector reports the number of todos per status at scrape time.
type TodoCollector struct {
	store todo.Store
	desc  *prometheus.Desc
}

// NewTodoCollector builds a collector reading from store.
func NewTodoCollector(store todo.Store) *TodoCollector {
	return &TodoCollector{
		store: store,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "todos"),
			"Current number of todos by status.",
			[]string{"status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *TodoCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

// Collect implements prometheus.Collector.
func (c *TodoCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectDeadline)
	defer cancel()
	board, err := todo.Group(ctx, c.store)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	for _, col := range board.Columns() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(len(col.Items)), string(col.Status))
	}
}
