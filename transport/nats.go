package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/internal/metrics"
	"github.com/arloliu/subpoll/internal/natsutil"
	"github.com/arloliu/subpoll/subscription"
	"github.com/arloliu/subpoll/types"
)

// Headers exchanged with a NATS bridge.
const (
	// HeaderPath carries the escaped request path.
	HeaderPath = "Subpoll-Path"

	// HeaderQuery carries the escaped query string.
	HeaderQuery = "Subpoll-Query"

	// HeaderStatus carries the upstream status code in the reply. A reply
	// without it is treated as 200.
	HeaderStatus = "Subpoll-Status"
)

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	// Subject is the request subject the bridge listens on. Required.
	Subject string

	// TransactionTimeout bounds one request/reply exchange.
	//
	// Default: 10s
	TransactionTimeout time.Duration

	// Encoder percent-encodes request values.
	//
	// Default: subscription.PercentEncoder
	Encoder subscription.Encoder

	Logger  types.Logger
	Metrics types.MetricsCollector
}

// SetDefaults fills unset fields.
func (c *NATSConfig) SetDefaults() {
	if c.TransactionTimeout == 0 {
		c.TransactionTimeout = DefaultTransactionTimeout
	}
	if c.Encoder == nil {
		c.Encoder = subscription.PercentEncoder
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
}

// Validate checks the configuration.
func (c *NATSConfig) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: subject is required", types.ErrInvalidConfig)
	}
	if c.TransactionTimeout < MinTransactionTimeout {
		return fmt.Errorf("%w: transaction timeout %v below minimum %v",
			types.ErrInvalidConfig, c.TransactionTimeout, MinTransactionTimeout)
	}

	return nil
}

// NATS sends poll requests over NATS request/reply.
//
// The request carries no body; the path and query travel in headers. The
// reply body is the raw response envelope.
type NATS struct {
	nc      *nats.Conn
	cfg     NATSConfig
	logger  types.Logger
	metrics types.MetricsCollector
}

var _ Transport = (*NATS)(nil)

// NewNATS creates a NATS transport on an existing connection.
//
// Parameters:
//   - nc: Connected NATS client; the caller keeps ownership
//   - cfg: Transport configuration; Subject is required
//
// Returns:
//   - *NATS: Ready transport
//   - error: types.ErrInvalidConfig on a bad configuration
func NewNATS(nc *nats.Conn, cfg NATSConfig) (*NATS, error) {
	if nc == nil {
		return nil, fmt.Errorf("%w: nats connection is required", types.ErrInvalidConfig)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &NATS{
		nc:      nc,
		cfg:     cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Do sends req to the bridge subject and waits for the reply.
func (n *NATS) Do(ctx context.Context, req subscription.Request) (Response, error) {
	resp, err := n.do(ctx, req)
	n.metrics.RecordTransportOutcome(Outcome(err))
	if err == nil || resp.Body != nil {
		n.metrics.ObserveResponseSize(len(resp.Body))
	}

	return resp, err
}

func (n *NATS) do(ctx context.Context, req subscription.Request) (Response, error) {
	txnCtx, cancel := context.WithTimeout(ctx, n.cfg.TransactionTimeout)
	defer cancel()

	msg := nats.NewMsg(n.cfg.Subject)
	msg.Header.Set(HeaderPath, req.Path(n.cfg.Encoder))
	msg.Header.Set(HeaderQuery, req.RawQuery(n.cfg.Encoder))

	reply, err := n.nc.RequestMsgWithContext(txnCtx, msg)
	if err != nil {
		n.logger.Warn("nats poll request failed", "subject", n.cfg.Subject, "error", err)

		return Response{}, natsutil.MapRequestError(ctx, err)
	}

	status := http.StatusOK
	if raw := reply.Header.Get(HeaderStatus); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return Response{}, fmt.Errorf("invalid %s header %q: %w", HeaderStatus, raw, err)
		}
		status = code
	}

	resp := Response{StatusCode: status, Body: reply.Data}
	if !is2xx(status) {
		return resp, &StatusError{StatusCode: status}
	}

	return resp, nil
}
