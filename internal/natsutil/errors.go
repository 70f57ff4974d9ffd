package natsutil

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/subpoll/types"
)

// IsConnectivityError checks if an error is caused by connectivity issues.
//
// This includes missing responders, connection refused, disconnections, etc.
// Kept in internal/natsutil to avoid importing NATS dependencies in the types package.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error indicates connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, types.ErrConnectFailed) ||
		errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrConnectionDraining) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused")
}

// MapRequestError converts a NATS request error into a transport outcome.
//
// Parameters:
//   - parent: Caller context, used to tell cancellation from the request timer
//   - err: Error returned by a NATS request
//
// Returns:
//   - error: err wrapped with types.ErrCancelled, types.ErrTimeout, or types.ErrConnectFailed
func MapRequestError(parent context.Context, err error) error {
	if err == nil {
		return nil
	}

	switch perr := parent.Err(); {
	case errors.Is(perr, context.Canceled):
		return fmt.Errorf("%w: %w", types.ErrCancelled, err)
	case errors.Is(perr, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", types.ErrTimeout, err)
	}

	if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "i/o timeout") {
		return fmt.Errorf("%w: %w", types.ErrTimeout, err)
	}
	if IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", types.ErrConnectFailed, err)
	}

	return err
}
