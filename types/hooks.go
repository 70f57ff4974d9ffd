package types

import "context"

// Hooks defines callbacks for Poller lifecycle events.
//
// All hooks are optional. OnStateChanged and OnError run in background goroutines
// so they never block the poll loop; OnPositionAdvanced runs inline after a
// response has been fully drained, before the next poll is prepared.
//
// Best practices for hook implementation:
//   - Complete quickly (< 1 second recommended)
//   - Respect context cancellation
//   - Handle errors gracefully (return error for logging)
//
// Example:
//
//	hooks := &subpoll.Hooks{
//	    OnPositionAdvanced: func(ctx context.Context, token string, region int) error {
//	        return store.Save(ctx, token, region)
//	    },
//	}
type Hooks struct {
	// OnPositionAdvanced is called after every successfully drained poll with the
	// committed position token and region.
	OnPositionAdvanced func(ctx context.Context, token string, region int) error

	// OnStateChanged is called when the poller transitions between states.
	OnStateChanged func(ctx context.Context, from, to State) error

	// OnError is called when a recoverable poll error occurs.
	OnError func(ctx context.Context, err error) error
}
