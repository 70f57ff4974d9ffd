package subpoll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/arloliu/subpoll/internal/hooks"
	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/internal/metrics"
	"github.com/arloliu/subpoll/subscription"
	"github.com/arloliu/subpoll/transport"
)

// Poll results recorded by MetricsCollector.RecordPoll.
const (
	pollResultOK             = "ok"
	pollResultRequestError   = "request_error"
	pollResultTransportError = "transport_error"
	pollResultFormatError    = "format_error"
	pollResultInterrupted    = "interrupted"
)

// PollResult summarizes one poll cycle.
type PollResult struct {
	// Messages is the number of messages handed to the handler.
	Messages int

	// Failed is the number of messages skipped because they could not be decoded.
	Failed int

	// HandlerErrors is the number of messages whose handler returned an error.
	HandlerErrors int

	// Position is the stream position committed by the response.
	Position Position
}

// Poller drives a subscription session against a transport.
//
// Each cycle prepares a request from the session, exchanges it through the
// transport, parses the envelope and hands every message to the handler in
// wire order. The next request is only prepared once the previous response
// has been drained, so the position token always follows the last message
// delivered.
//
// A Poller runs either in background mode (Start/Stop) or in manual mode
// (PollOnce). The two are mutually exclusive. A stopped Poller cannot be
// restarted.
//
// Thread Safety: Start, Stop, State, Position and PollOnce are safe for
// concurrent use.
type Poller struct {
	cfg          Config
	session      *subscription.Session
	transport    transport.Transport
	handler      MessageHandler
	hooks        Hooks
	metrics      MetricsCollector
	logger       Logger
	checkpointer Checkpointer
	limiter      *rate.Limiter
	backoff      *retryBackoff
	params       subscription.PollParams

	state          atomic.Int32
	lastTransition atomic.Int64
	position       atomic.Pointer[Position]

	mu        sync.Mutex
	ctx       context.Context //nolint:containedctx // lifecycle context owned by Start/Stop
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	restored  bool
	lastSaved Position
}

// NewPoller creates a new Poller.
//
// The configuration is copied, defaulted and validated. The poller starts in
// StateIdle.
//
// Parameters:
//   - cfg: Configuration (see DefaultConfig)
//   - tr: Transport used for poll exchanges
//   - handler: Receives every message
//   - opts: Optional logger, metrics, hooks, checkpointer and identity
//
// Returns:
//   - *Poller: New poller instance
//   - error: ErrInvalidConfig, ErrTransportRequired or ErrHandlerRequired
//
// Example:
//
//	cfg := subpoll.DefaultConfig()
//	cfg.SubscribeKey = "sub-c-..."
//	cfg.Channels = []string{"orders"}
//
//	tr, _ := transport.NewHTTP(cfg.HTTPConfig())
//	p, err := subpoll.NewPoller(&cfg, tr, handler)
func NewPoller(cfg *Config, tr transport.Transport, handler MessageHandler, opts ...Option) (*Poller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if tr == nil {
		return nil, ErrTransportRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	options := &pollerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = logger.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}

	cfgCopy := *cfg
	SetDefaults(&cfgCopy)
	if err := cfgCopy.Validate(); err != nil {
		return nil, err
	}
	cfgCopy.ValidateWithWarnings(options.logger)

	identity := options.identity
	if identity == nil {
		identity = cfgCopy.Identity()
	}

	session, err := subscription.NewSession(subscription.SessionConfig{
		Identity:               identity,
		MaxPositionTokenLength: cfgCopy.MaxPositionTokenLength,
		Logger:                 options.logger,
		Metrics:                options.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	limit := rate.Inf
	if cfgCopy.MaxPollRate > 0 {
		limit = rate.Limit(cfgCopy.MaxPollRate)
	}

	p := &Poller{
		cfg:          cfgCopy,
		session:      session,
		transport:    tr,
		handler:      handler,
		hooks:        hooks.Fill(options.hooks),
		metrics:      options.metrics,
		logger:       options.logger,
		checkpointer: options.checkpointer,
		limiter:      rate.NewLimiter(limit, cfgCopy.PollBurst),
		backoff:      newRetryBackoff(cfgCopy.Retry),
		params:       cfgCopy.PollParams(),
	}
	p.state.Store(int32(StateIdle))
	p.lastTransition.Store(time.Now().UnixNano())
	p.position.Store(&Position{})

	return p, nil
}

// Start restores the last checkpoint, if any, and begins polling in the background.
//
// Parameters:
//   - ctx: Bounds checkpoint loading only; the poll loop runs until Stop
//
// Returns:
//   - error: ErrAlreadyStarted if started before, or a checkpoint error
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		return ErrAlreadyStarted
	}

	if err := p.restore(ctx); err != nil {
		return err
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("poller started",
		"channels", p.params.Channel,
		"channel_groups", p.params.ChannelGroup,
		"position", p.Position().Token,
	)

	p.wg.Add(1)
	go p.run(p.ctx)

	return nil
}

// Stop cancels the in-flight poll and waits for the poll loop to exit.
//
// A message already handed to the handler completes first; the rest of the
// response is abandoned and its position is not checkpointed.
//
// Parameters:
//   - ctx: Bounds the wait; without a deadline Config.ShutdownTimeout applies
//
// Returns:
//   - error: ErrNotStarted if not running, or the context error on timeout
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.ctx == nil || p.State() == StateStopped {
		p.mu.Unlock()

		return ErrNotStarted
	}

	p.transitionState(ctx, StateStopped)
	p.cancel()
	p.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped", "position", p.Position().Token)
		return nil
	case <-ctx.Done():
		p.logger.Error("shutdown timeout exceeded, poll loop still running")
		return ctx.Err()
	}
}

// State returns the current poller state.
//
// Returns:
//   - State: Current state
func (p *Poller) State() State {
	return State(p.state.Load())
}

// Position returns the last committed stream position.
//
// It never blocks on an in-flight poll and is safe to call from any goroutine.
func (p *Poller) Position() Position {
	return *p.position.Load()
}

// publishPosition copies the session position for concurrent readers.
// Must run on the goroutine that owns the session.
func (p *Poller) publishPosition() Position {
	pos := Position{
		Token:  p.session.PositionToken(),
		Region: p.session.Region(),
	}
	p.position.Store(&pos)

	return pos
}

// PollOnce runs a single poll cycle in the caller's goroutine.
//
// The first call restores the last checkpoint. Per-message failures are
// counted in the result and reported through Hooks.OnError; the returned
// error covers request, transport and envelope failures only.
//
// Parameters:
//   - ctx: Cancels the exchange and the drain
//
// Returns:
//   - PollResult: Counts and the committed position
//   - error: ErrAlreadyStarted in background mode, or the poll failure
func (p *Poller) PollOnce(ctx context.Context) (PollResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx != nil {
		return PollResult{}, ErrAlreadyStarted
	}

	if err := p.restore(ctx); err != nil {
		return PollResult{}, err
	}

	result, err := p.poll(ctx)
	p.transitionState(ctx, StateIdle)
	if err != nil {
		p.reportError(ctx, err)
	}

	return result, err
}

// run is the background poll loop.
func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}

		_, err := p.poll(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			p.backoff.Reset()
			continue
		}

		p.reportError(ctx, err)

		delay := p.backoff.Next()
		p.transitionState(ctx, StateBackoff)
		p.metrics.RecordBackoff(delay.Seconds())
		p.logger.Warn("poll failed, backing off",
			"error", err,
			"kind", errorKind(err),
			"delay", delay,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// poll runs one request/response/drain cycle.
func (p *Poller) poll(ctx context.Context) (PollResult, error) {
	start := time.Now()
	p.transitionState(ctx, StatePolling)

	// A drain interrupted by cancellation resumes before anything new is requested.
	if !p.session.Pending() {
		if result, err := p.exchange(ctx); err != nil {
			if ctx.Err() != nil {
				result = pollResultInterrupted
			}
			p.metrics.RecordPoll(result, time.Since(start).Seconds())
			return PollResult{}, err
		}
		p.publishPosition()
	}

	p.transitionState(ctx, StateDraining)
	result := p.drain(ctx)
	result.Position = p.Position()

	if p.session.Pending() {
		// Interrupted mid-drain: keep the stored position behind the undelivered messages.
		p.metrics.RecordPoll(pollResultInterrupted, time.Since(start).Seconds())
		return result, nil
	}

	p.advance(ctx, result.Position)
	p.metrics.RecordPoll(pollResultOK, time.Since(start).Seconds())

	return result, nil
}

// exchange sends the next request and loads the response into the session.
//
// Returns:
//   - string: Poll result label for metrics when err is non-nil
//   - error: Request, transport or envelope failure
func (p *Poller) exchange(ctx context.Context) (string, error) {
	req, err := p.session.PrepareNextPoll(p.params)
	if err != nil {
		return pollResultRequestError, fmt.Errorf("failed to prepare poll: %w", err)
	}

	resp, err := p.transport.Do(ctx, req)
	if err != nil {
		return pollResultTransportError, fmt.Errorf("poll exchange failed: %w", err)
	}

	if err := p.session.ParseEnvelope(resp.Body); err != nil {
		return pollResultFormatError, fmt.Errorf("invalid poll response: %w", err)
	}

	return pollResultOK, nil
}

// drain hands every message of the current response to the handler.
func (p *Poller) drain(ctx context.Context) PollResult {
	var result PollResult

	for msg, err := range p.session.Messages() {
		if err != nil {
			result.Failed++
			p.reportError(ctx, err)

			continue
		}

		if herr := p.handler.HandleMessage(ctx, msg); herr != nil {
			result.HandlerErrors++
			p.reportError(ctx, fmt.Errorf("handler failed for channel %q: %w", msg.Channel, herr))
		}
		result.Messages++

		if ctx.Err() != nil {
			break
		}
	}

	return result
}

// advance publishes a fully drained position to the hook and the checkpointer.
func (p *Poller) advance(ctx context.Context, pos Position) {
	if err := p.hooks.OnPositionAdvanced(ctx, pos.Token, pos.Region); err != nil {
		p.logger.Warn("position hook error", "token", pos.Token, "error", err)
	}

	if p.checkpointer == nil || pos == p.lastSaved {
		return
	}
	if err := p.checkpointer.Save(ctx, pos); err != nil {
		p.reportError(ctx, fmt.Errorf("failed to save checkpoint: %w", err))
		return
	}
	p.lastSaved = pos
}

// restore loads the checkpointed position once. Caller must hold p.mu.
func (p *Poller) restore(ctx context.Context) error {
	if p.restored || p.checkpointer == nil {
		return nil
	}

	pos, err := p.checkpointer.Load(ctx)
	if errors.Is(err, ErrNoCheckpoint) {
		p.restored = true
		p.logger.Info("no checkpoint found, starting from the live edge")

		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := p.session.Restore(pos.Token, pos.Region); err != nil {
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}
	p.lastSaved = p.publishPosition()
	p.restored = true
	p.logger.Info("resuming from checkpoint",
		"token", pos.Token,
		"region", pos.Region,
		"saved_at", pos.SavedAt,
	)

	return nil
}

// reportError logs err and forwards it to the OnError hook in the background.
func (p *Poller) reportError(ctx context.Context, err error) {
	p.logger.Error("poll error", "error", err)

	go func() {
		if herr := p.hooks.OnError(ctx, err); herr != nil {
			p.logger.Error("error hook failed", "error", herr)
		}
	}()
}

// errorKind labels a poll failure for logs.
func errorKind(err error) string {
	switch {
	case IsTransportError(err):
		return transport.Outcome(err)
	case IsParseError(err):
		return "format"
	default:
		return "other"
	}
}

// transitionState moves the poller to a new state.
//
// Transitions out of StateStopped are ignored silently; they only happen when
// the poll loop races with Stop.
//
// Returns:
//   - bool: true if the state changed
func (p *Poller) transitionState(ctx context.Context, to State) bool {
	var from State
	for {
		from = p.State()
		if from == to {
			return false
		}
		if !isValidTransition(from, to) {
			if from != StateStopped {
				p.logger.Error("invalid state transition attempted",
					"from", from.String(),
					"to", to.String(),
				)
			}

			return false
		}
		if p.state.CompareAndSwap(int32(from), int32(to)) { //nolint:gosec // State values are controlled enum
			break
		}
	}

	now := time.Now().UnixNano()
	elapsed := time.Duration(now - p.lastTransition.Swap(now))

	p.logger.Debug("state transition",
		"from", from.String(),
		"to", to.String(),
	)

	go func() {
		if err := p.hooks.OnStateChanged(ctx, from, to); err != nil {
			p.logger.Error("state change hook error", "from", from, "to", to, "error", err)
		}
	}()

	p.metrics.RecordStateTransition(from, to, elapsed.Seconds())

	return true
}

// validTransitions lists the states reachable from each state.
var validTransitions = map[State][]State{
	StateIdle:     {StatePolling, StateStopped},
	StatePolling:  {StateDraining, StateBackoff, StateIdle, StateStopped},
	StateDraining: {StatePolling, StateIdle, StateStopped},
	StateBackoff:  {StatePolling, StateStopped},
	StateStopped:  {},
}

// isValidTransition validates that a state transition is allowed.
func isValidTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}
