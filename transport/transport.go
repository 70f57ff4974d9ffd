package transport

import (
	"context"
	"errors"
	"time"

	"github.com/arloliu/subpoll/subscription"
	"github.com/arloliu/subpoll/types"
)

// Transport sends one poll request and returns its outcome.
type Transport interface {
	Do(ctx context.Context, req subscription.Request) (Response, error)
}

// Response is a completed exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError reports a non-2xx status. It matches types.ErrHTTPStatus.
type StatusError = types.StatusError

// Transaction timer bounds.
const (
	DefaultTransactionTimeout = 10 * time.Second
	MinTransactionTimeout     = 200 * time.Millisecond

	// DefaultMaxResponseSize caps a response body at 32 MiB.
	DefaultMaxResponseSize = 32 << 20
)

// Outcome labels recorded through types.TransportMetrics.
const (
	OutcomeOK            = "ok"
	OutcomeTimeout       = "timeout"
	OutcomeCancelled     = "cancelled"
	OutcomeConnectFailed = "connect_failed"
	OutcomeHTTPStatus    = "http_status"
	OutcomeReplyTooBig   = "reply_too_big"
	OutcomeError         = "error"
)

// Outcome returns the metrics label for the result of a Do call.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, types.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, types.ErrCancelled):
		return OutcomeCancelled
	case errors.Is(err, types.ErrConnectFailed):
		return OutcomeConnectFailed
	case errors.Is(err, types.ErrHTTPStatus):
		return OutcomeHTTPStatus
	case errors.Is(err, types.ErrReplyTooBig):
		return OutcomeReplyTooBig
	default:
		return OutcomeError
	}
}

// contextError maps the state of the caller context and the transaction timer
// to a transport outcome. It returns nil when neither fired.
func contextError(parent, txn context.Context) error {
	if err := parent.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return types.ErrTimeout
		}

		return types.ErrCancelled
	}
	if errors.Is(txn.Err(), context.DeadlineExceeded) {
		return types.ErrTimeout
	}

	return nil
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}
