package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the tool call collectors on their own registry so several
// servers (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3toolbox_tool_calls_total",
				Help: "Total number of MCP tool calls",
			},
			[]string{"tool", "status"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "s3toolbox_tool_call_duration_seconds",
				Help:    "Duration of MCP tool calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}
}

// ObserveToolCall records one finished tool call.
func (m *Metrics) ObserveToolCall(tool string, d time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
