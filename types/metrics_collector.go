package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods may be called from the poller goroutine and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	PollerMetrics
	ParseMetrics
	TransportMetrics
}

// PollerMetrics defines metrics for the poll loop.
type PollerMetrics interface {
	// RecordStateTransition records a poller state transition event.
	RecordStateTransition(from, to State, duration float64)

	// RecordPoll records a completed poll cycle.
	//
	// Parameters:
	//   - result: "ok", "transport_error", "format_error"
	//   - duration: Time from request preparation to drained buffer, in seconds
	RecordPoll(result string, duration float64)

	// RecordBackoff observes a backoff delay before the next poll.
	//
	// Parameters:
	//   - seconds: Delay in seconds
	RecordBackoff(seconds float64)

	// RecordRegionChange records that the routing region reported by the origin changed.
	RecordRegionChange(from, to int)
}

// ParseMetrics defines metrics for envelope parsing and message extraction.
type ParseMetrics interface {
	// RecordParseError records a parse failure.
	//
	// Parameters:
	//   - stage: "envelope" or "message"
	//   - reason: Field-level diagnosis ("no_tr", "no_m", "no_payload", ...)
	RecordParseError(stage, reason string)

	// RecordMessage records one extracted message by type ("published", "signal").
	RecordMessage(messageType string)
}

// TransportMetrics defines metrics for transport exchanges.
type TransportMetrics interface {
	// RecordTransportOutcome records a transport outcome
	// ("ok", "timeout", "cancelled", "connect_failed", "http_status").
	RecordTransportOutcome(outcome string)

	// ObserveResponseSize observes the size of a response body in bytes.
	ObserveResponseSize(bytes int)
}
