package subpoll

import "github.com/arloliu/subpoll/types"

// Re-export sentinel errors so callers can match them without importing types.
var (
	ErrInvalidChannel      = types.ErrInvalidChannel
	ErrBufferNotEmpty      = types.ErrBufferNotEmpty
	ErrFormat              = types.ErrFormat
	ErrStructuralViolation = types.ErrStructuralViolation

	ErrTimeout       = types.ErrTimeout
	ErrCancelled     = types.ErrCancelled
	ErrConnectFailed = types.ErrConnectFailed
	ErrHTTPStatus    = types.ErrHTTPStatus
	ErrReplyTooBig   = types.ErrReplyTooBig

	ErrInvalidConfig     = types.ErrInvalidConfig
	ErrTransportRequired = types.ErrTransportRequired
	ErrHandlerRequired   = types.ErrHandlerRequired
	ErrAlreadyStarted    = types.ErrAlreadyStarted
	ErrNotStarted        = types.ErrNotStarted

	ErrNoCheckpoint = types.ErrNoCheckpoint
)

// IsTransportError reports whether err is a transport outcome (timeout,
// cancellation, connection failure, status or size error).
func IsTransportError(err error) bool {
	return types.IsTransportError(err)
}

// IsParseError reports whether err came from the envelope parser or the
// message extractor.
func IsParseError(err error) bool {
	return types.IsParseError(err)
}
