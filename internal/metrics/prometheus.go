package metrics

import (
	"sync"

	"github.com/arloliu/subpoll/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// PrometheusCollector never panics even if the registerer already holds metrics
// with the same names until something is actually recorded.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Poller metrics
	stateTransitions *prometheus.CounterVec
	pollResults      *prometheus.CounterVec
	pollDuration     prometheus.Histogram
	backoffSeconds   prometheus.Histogram
	regionChanges    prometheus.Counter
	currentRegion    prometheus.Gauge

	// Parse metrics
	parseErrors *prometheus.CounterVec
	messages    *prometheus.CounterVec

	// Transport metrics
	transportOutcomes *prometheus.CounterVec
	responseSize      prometheus.Histogram
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "subpoll" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "subpoll"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "poller",
			Name:      "state_transitions_total",
			Help:      "Total poller state transitions by target state.",
		}, []string{"from", "to"})

		p.pollResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Total poll cycles by result (ok,transport_error,format_error).",
		}, []string{"result"})

		p.pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "poller",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a poll cycle from request preparation to drained buffer.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		})

		p.backoffSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "poller",
			Name:      "retry_backoff_seconds",
			Help:      "Observed backoff durations before re-polling, in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		})

		p.regionChanges = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "poller",
			Name:      "region_changes_total",
			Help:      "Total number of times the origin reported a different region.",
		})

		p.currentRegion = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "poller",
			Name:      "region",
			Help:      "Region identifier reported by the last successful poll.",
		})

		p.parseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "parser",
			Name:      "errors_total",
			Help:      "Total parse failures by stage (envelope,message) and reason.",
		}, []string{"stage", "reason"})

		p.messages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "parser",
			Name:      "messages_total",
			Help:      "Total messages extracted by type (published,signal).",
		}, []string{"type"})

		p.transportOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "transport",
			Name:      "outcomes_total",
			Help:      "Total transport outcomes (ok,timeout,cancelled,connect_failed,http_status).",
		}, []string{"outcome"})

		p.responseSize = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "transport",
			Name:      "response_size_bytes",
			Help:      "Size of poll response bodies in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8), // 64B .. ~1MiB
		})

		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.pollResults)
		p.reg.MustRegister(p.pollDuration)
		p.reg.MustRegister(p.backoffSeconds)
		p.reg.MustRegister(p.regionChanges)
		p.reg.MustRegister(p.currentRegion)
		p.reg.MustRegister(p.parseErrors)
		p.reg.MustRegister(p.messages)
		p.reg.MustRegister(p.transportOutcomes)
		p.reg.MustRegister(p.responseSize)
	})
}

// PollerMetrics implementation

// RecordStateTransition counts a transition between two poller states.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State, _ /* duration */ float64) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordPoll counts a poll cycle by result and observes its duration.
func (p *PrometheusCollector) RecordPoll(result string, duration float64) {
	p.ensureRegistered()
	p.pollResults.WithLabelValues(result).Inc()
	p.pollDuration.Observe(duration)
}

// RecordBackoff observes a backoff delay (seconds).
func (p *PrometheusCollector) RecordBackoff(seconds float64) {
	p.ensureRegistered()
	p.backoffSeconds.Observe(seconds)
}

// RecordRegionChange counts a region change and updates the region gauge.
func (p *PrometheusCollector) RecordRegionChange(_ /* from */, to int) {
	p.ensureRegistered()
	p.regionChanges.Inc()
	p.currentRegion.Set(float64(to))
}

// ParseMetrics implementation

// RecordParseError counts a parse failure by stage and reason.
func (p *PrometheusCollector) RecordParseError(stage, reason string) {
	p.ensureRegistered()
	p.parseErrors.WithLabelValues(stage, reason).Inc()
}

// RecordMessage counts an extracted message by type.
func (p *PrometheusCollector) RecordMessage(messageType string) {
	p.ensureRegistered()
	p.messages.WithLabelValues(messageType).Inc()
}

// TransportMetrics implementation

// RecordTransportOutcome counts a transport outcome.
func (p *PrometheusCollector) RecordTransportOutcome(outcome string) {
	p.ensureRegistered()
	p.transportOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveResponseSize observes a response body size.
func (p *PrometheusCollector) ObserveResponseSize(bytes int) {
	p.ensureRegistered()
	p.responseSize.Observe(float64(bytes))
}
