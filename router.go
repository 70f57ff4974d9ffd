package subpoll

import (
	"context"
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
)

// Router dispatches messages to per-channel handlers.
//
// A message is matched by its channel first, then by its match-or-group value
// (the wildcard pattern or channel group it arrived through), and otherwise
// goes to the fallback handler. Handlers can be registered and removed while
// the poller runs.
type Router struct {
	handlers *xsync.Map[string, MessageHandler]
	fallback MessageHandler
}

var _ MessageHandler = (*Router)(nil)

// NewRouter creates a Router. fallback may be nil, in which case unmatched
// messages are dropped with ErrNoRoute.
func NewRouter(fallback MessageHandler) *Router {
	return &Router{
		handlers: xsync.NewMap[string, MessageHandler](),
		fallback: fallback,
	}
}

// ErrNoRoute is returned for a message that matches no handler and no fallback is set.
var ErrNoRoute = errors.New("no handler for message")

// Handle registers h for a channel name, wildcard pattern, or channel group.
// A later registration for the same name replaces the earlier one.
func (r *Router) Handle(name string, h MessageHandler) {
	r.handlers.Store(name, h)
}

// HandleFunc registers a function for name.
func (r *Router) HandleFunc(name string, fn func(ctx context.Context, msg Message) error) {
	r.Handle(name, MessageHandlerFunc(fn))
}

// Remove unregisters the handler for name.
func (r *Router) Remove(name string) {
	r.handlers.Delete(name)
}

// Len returns the number of registered handlers.
func (r *Router) Len() int {
	return r.handlers.Size()
}

// HandleMessage implements MessageHandler.
func (r *Router) HandleMessage(ctx context.Context, msg Message) error {
	if h, ok := r.handlers.Load(string(msg.Channel)); ok {
		return h.HandleMessage(ctx, msg)
	}
	if len(msg.MatchOrGroup) > 0 {
		if h, ok := r.handlers.Load(string(msg.MatchOrGroup)); ok {
			return h.HandleMessage(ctx, msg)
		}
	}
	if r.fallback != nil {
		return r.fallback.HandleMessage(ctx, msg)
	}

	return fmt.Errorf("%w: channel %q", ErrNoRoute, msg.Channel)
}
