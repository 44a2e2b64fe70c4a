package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for action call metrics.
const (
	OutcomeOK           = "ok"
	OutcomeDecodeError  = "decode_error"
	OutcomeEncodeError  = "encode_error"
	OutcomeHandlerError = "handler_error"
	OutcomeUnknown      = "unknown_action"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wisp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"toolkit", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wisp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"toolkit", "method", "path", "status"},
	)
	actionCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wisp",
			Subsystem: "toolkit",
			Name:      "action_calls_total",
			Help:      "Action calls dispatched by the session loop.",
		},
		[]string{"toolkit", "action", "outcome"},
	)
	actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wisp",
			Subsystem: "toolkit",
			Name:      "action_call_duration_seconds",
			Help:      "Action handler duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"toolkit", "action", "outcome"},
	)
	inflightHandlers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wisp",
			Subsystem: "toolkit",
			Name:      "inflight_handlers",
			Help:      "Handler goroutines currently running.",
		},
		[]string{"toolkit"},
	)
	probeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wisp",
			Subsystem: "toolkit",
			Name:      "probe_failures_total",
			Help:      "Liveness probe sends that failed.",
		},
		[]string{"toolkit"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			actionCalls, actionDuration,
			inflightHandlers, probeFailures,
		)
	})
}

func RecordHTTPRequest(toolkit, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(toolkit, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(toolkit, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordActionCall(toolkit, action, outcome string, duration time.Duration) {
	RegisterMetrics()
	actionCalls.WithLabelValues(toolkit, action, outcome).Inc()
	actionDuration.WithLabelValues(toolkit, action, outcome).Observe(duration.Seconds())
}

func HandlerStarted(toolkit string) {
	RegisterMetrics()
	inflightHandlers.WithLabelValues(toolkit).Inc()
}

func HandlerFinished(toolkit string) {
	RegisterMetrics()
	inflightHandlers.WithLabelValues(toolkit).Dec()
}

func RecordProbeFailure(toolkit string) {
	RegisterMetrics()
	probeFailures.WithLabelValues(toolkit).Inc()
}
