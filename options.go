package subpoll

import "github.com/arloliu/subpoll/subscription"

// Option configures a Poller with optional dependencies.
type Option func(*pollerOptions)

// pollerOptions holds optional Poller configuration.
type pollerOptions struct {
	hooks        *Hooks
	metrics      MetricsCollector
	logger       Logger
	checkpointer Checkpointer
	identity     subscription.Identity
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewPoller
//
// Example:
//
//	hooks := &subpoll.Hooks{
//	    OnError: func(ctx context.Context, err error) error {
//	        errorsSeen.Inc()
//	        return nil
//	    },
//	}
//	p, err := subpoll.NewPoller(&cfg, tr, handler, subpoll.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *pollerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewPoller
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *pollerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for NewPoller
//
// Example:
//
//	p, err := subpoll.NewPoller(&cfg, tr, handler, subpoll.WithLogger(logging.NewSlogDefault()))
func WithLogger(logger Logger) Option {
	return func(o *pollerOptions) {
		o.logger = logger
	}
}

// WithCheckpointer persists the stream position.
//
// The position is loaded once in Start and saved after every drained response
// whose position changed.
//
// Parameters:
//   - cp: Checkpointer implementation (e.g., checkpoint.NewKV)
//
// Returns:
//   - Option: Functional option for NewPoller
func WithCheckpointer(cp Checkpointer) Option {
	return func(o *pollerOptions) {
		o.checkpointer = cp
	}
}

// WithIdentity replaces the static identity built from Config.
//
// Use it when the auth key rotates at runtime; the identity is read before
// every poll and must be safe for concurrent use.
//
// Parameters:
//   - id: Identity provider
//
// Returns:
//   - Option: Functional option for NewPoller
func WithIdentity(id subscription.Identity) Option {
	return func(o *pollerOptions) {
		o.identity = id
	}
}
