package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ReasonPrivileged    = "privileged"
	ReasonInvalidTarget = "invalid_target"
	ReasonInvalidPorts  = "invalid_ports"
	ReasonBuild         = "build"
)

var (
	registerOnce sync.Once

	toolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "secscan",
			Subsystem: "tool",
			Name:      "executions_total",
			Help:      "Scanner processes run, by outcome.",
		},
		[]string{"tool", "outcome"},
	)
	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "secscan",
			Subsystem: "tool",
			Name:      "execution_duration_seconds",
			Help:      "Scanner process wall time in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		},
		[]string{"tool", "outcome"},
	)
	toolRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "secscan",
			Subsystem: "tool",
			Name:      "rejections_total",
			Help:      "Tool calls refused before a process was spawned.",
		},
		[]string{"tool", "reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(toolExecutions, toolDuration, toolRejections)
	})
}

func RecordExecution(tool, outcome string, duration time.Duration) {
	RegisterMetrics()
	toolExecutions.WithLabelValues(tool, outcome).Inc()
	toolDuration.WithLabelValues(tool, outcome).Observe(duration.Seconds())
}

func RecordRejection(tool, reason string) {
	RegisterMetrics()
	toolRejections.WithLabelValues(tool, reason).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
