package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bootctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	bindAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootctl",
			Subsystem: "boot",
			Name:      "bind_attempts_total",
			Help:      "Dependency bind attempts by outcome.",
		},
		[]string{"node", "outcome"},
	)
	readinessWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bootctl",
			Subsystem: "boot",
			Name:      "readiness_wait_seconds",
			Help:      "Time consumers spent waiting on the readiness flag.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "outcome"},
	)
	gateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootctl",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "One-time gate decisions by gate and transition.",
		},
		[]string{"node", "gate", "decision"},
	)
	flagWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootctl",
			Subsystem: "flagstore",
			Name:      "writes_total",
			Help:      "Persisted flag writes by key and success.",
		},
		[]string{"key", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			bindAttempts,
			readinessWait,
			gateDecisions,
			flagWrites,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordBindAttempt(node, outcome string) {
	RegisterMetrics()
	bindAttempts.WithLabelValues(node, outcome).Inc()
}

func RecordReadinessWait(node, outcome string, waited time.Duration) {
	RegisterMetrics()
	readinessWait.WithLabelValues(node, outcome).Observe(waited.Seconds())
}

func RecordGateDecision(node, gate, decision string) {
	RegisterMetrics()
	gateDecisions.WithLabelValues(node, gate, decision).Inc()
}

func RecordFlagWrite(key string, success bool) {
	RegisterMetrics()
	flagWrites.WithLabelValues(key, strconv.FormatBool(success)).Inc()
}
