// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/arloliu/subpoll/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// PollerMetrics implementation

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State, _ /* duration */ float64) {
	// No-op
}

// RecordPoll discards the poll cycle metric.
func (n *NopMetrics) RecordPoll(_ /* result */ string, _ /* duration */ float64) {
	// No-op
}

// RecordBackoff discards the backoff metric.
func (n *NopMetrics) RecordBackoff(_ /* seconds */ float64) {
	// No-op
}

// RecordRegionChange discards the region change metric.
func (n *NopMetrics) RecordRegionChange(_ /* from */, _ /* to */ int) {
	// No-op
}

// ParseMetrics implementation

// RecordParseError discards the parse error metric.
func (n *NopMetrics) RecordParseError(_ /* stage */, _ /* reason */ string) {
	// No-op
}

// RecordMessage discards the message metric.
func (n *NopMetrics) RecordMessage(_ /* messageType */ string) {
	// No-op
}

// TransportMetrics implementation

// RecordTransportOutcome discards the transport outcome metric.
func (n *NopMetrics) RecordTransportOutcome(_ /* outcome */ string) {
	// No-op
}

// ObserveResponseSize discards the response size metric.
func (n *NopMetrics) ObserveResponseSize(_ /* bytes */ int) {
	// No-op
}
