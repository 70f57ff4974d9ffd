package subpoll

import "context"

// MessageHandler processes one message.
//
// HandleMessage runs synchronously on the poll goroutine. The message views
// are only valid until it returns. A returned error is reported through
// Hooks.OnError; it does not stop the drain or hold back the position.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message) error
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg Message) error

// HandleMessage implements MessageHandler.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
