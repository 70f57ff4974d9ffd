package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the subpoll library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// Components wrap them with context using fmt.Errorf("%s: %w", msg, err) so that
// the coarse error kind survives while the field-level diagnosis stays readable.

// Request builder errors - returned while preparing the next poll.
var (
	// ErrInvalidChannel is returned when neither a channel nor a channel group is given.
	ErrInvalidChannel = errors.New("invalid channel: channel or channel group is required")

	// ErrBufferNotEmpty is returned when a new poll is prepared (or a new response is
	// parsed) before all messages of the previous response have been drained.
	ErrBufferNotEmpty = errors.New("receive buffer not empty: drain pending messages first")
)

// Parse errors - returned by the envelope parser and the message extractor.
var (
	// ErrFormat indicates a structurally invalid response envelope or message object.
	ErrFormat = errors.New("response format error")

	// ErrStructuralViolation indicates an unexpected byte where a message object was
	// expected. Iteration over the current response is halted.
	ErrStructuralViolation = errors.New("structural violation in message array")
)

// Transport outcome errors - surfaced unchanged to the caller.
var (
	// ErrTimeout is returned when the transaction timer expired before a response arrived.
	ErrTimeout = errors.New("transaction timed out")

	// ErrCancelled is returned when the request was cancelled by the caller.
	ErrCancelled = errors.New("transaction cancelled")

	// ErrConnectFailed is returned when the transport could not reach the origin.
	ErrConnectFailed = errors.New("connection failed")

	// ErrHTTPStatus is returned when the origin answered with a non-2xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrReplyTooBig is returned when a response body exceeds the configured limit.
	ErrReplyTooBig = errors.New("reply too big")
)

// Poller errors - lifecycle errors returned by the root Poller.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTransportRequired is returned when no transport is supplied.
	ErrTransportRequired = errors.New("transport is required")

	// ErrHandlerRequired is returned when no message handler is supplied.
	ErrHandlerRequired = errors.New("message handler is required")

	// ErrAlreadyStarted is returned when Start is called on a running poller.
	ErrAlreadyStarted = errors.New("poller already started")

	// ErrNotStarted is returned when Stop is called on a poller that is not running.
	ErrNotStarted = errors.New("poller not started")
)

// Checkpoint errors.
var (
	// ErrNoCheckpoint is returned when no position has been stored yet.
	ErrNoCheckpoint = errors.New("no checkpoint stored")
)

// StatusError carries the status code of a non-2xx response.
//
// It matches ErrHTTPStatus with errors.Is.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrHTTPStatus.Error(), e.StatusCode)
}

// Is reports whether target is ErrHTTPStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// IsTransportError reports whether err is one of the transport outcomes.
//
// Transport outcomes are never translated into ErrFormat, so the poller uses this
// to tell network trouble apart from a bad response.
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if err is a timeout, cancellation, connection failure, or status error
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrCancelled) ||
		errors.Is(err, ErrConnectFailed) ||
		errors.Is(err, ErrHTTPStatus) ||
		errors.Is(err, ErrReplyTooBig)
}

// IsParseError reports whether err came from the envelope parser or the message extractor.
func IsParseError(err error) bool {
	return errors.Is(err, ErrFormat) || errors.Is(err, ErrStructuralViolation)
}
