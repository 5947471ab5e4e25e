package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FT command Prometheus metrics.
var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftquery",
			Name:      "commands_total",
			Help:      "Total number of executed FT commands",
		},
		[]string{"command", "status"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ftquery",
			Name:      "command_duration_seconds",
			Help:      "FT command round trip latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"command"},
	)

	InfoCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftquery",
			Name:      "info_cache_total",
			Help:      "FT.INFO snapshot cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Command status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var registerOnce sync.Once

// Register registers all ftquery metrics with the default registry. Call once from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CommandsTotal,
			CommandDuration,
			InfoCacheTotal,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}

// ObserveCommand records one command execution that started at start.
func ObserveCommand(command string, start time.Time, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	CommandsTotal.WithLabelValues(command, status).Inc()
	CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}
