package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/internal/metrics"
	"github.com/arloliu/subpoll/subscription"
	"github.com/arloliu/subpoll/types"
)

// DefaultUserAgent is sent when HTTPConfig.UserAgent is empty.
var DefaultUserAgent = runtime.GOOS + "-Go-subpoll/1.0.0"

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	// Origin is the scheme and host of the subscribe service, e.g.
	// "https://ps.example.com". Required.
	Origin string

	// UserAgent is sent on every request.
	//
	// Default: DefaultUserAgent
	UserAgent string

	// DisableKeepAlive closes the connection after every request.
	DisableKeepAlive bool

	// TransactionTimeout bounds one request from dial to the last body byte.
	// Must not be below MinTransactionTimeout.
	//
	// Default: 10s
	TransactionTimeout time.Duration

	// MaxResponseSize caps the body size in bytes.
	//
	// Default: 32 MiB
	MaxResponseSize int64

	// Encoder percent-encodes request values.
	//
	// Default: subscription.PercentEncoder
	Encoder subscription.Encoder

	// Client overrides the HTTP client. When set, DisableKeepAlive only adds
	// "Connection: close" to the request.
	Client *http.Client

	Logger  types.Logger
	Metrics types.MetricsCollector
}

// SetDefaults fills unset fields.
func (c *HTTPConfig) SetDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.TransactionTimeout == 0 {
		c.TransactionTimeout = DefaultTransactionTimeout
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
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
func (c *HTTPConfig) Validate() error {
	if c.Origin == "" {
		return fmt.Errorf("%w: origin is required", types.ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Origin, "http://") && !strings.HasPrefix(c.Origin, "https://") {
		return fmt.Errorf("%w: origin %q must start with http:// or https://", types.ErrInvalidConfig, c.Origin)
	}
	if c.TransactionTimeout < MinTransactionTimeout {
		return fmt.Errorf("%w: transaction timeout %v below minimum %v",
			types.ErrInvalidConfig, c.TransactionTimeout, MinTransactionTimeout)
	}

	return nil
}

// HTTP sends poll requests to the origin with net/http.
//
// HTTP is safe for concurrent use, although a poller only keeps one request in
// flight.
type HTTP struct {
	cfg     HTTPConfig
	client  *http.Client
	logger  types.Logger
	metrics types.MetricsCollector
}

var _ Transport = (*HTTP)(nil)

// NewHTTP creates an HTTP transport.
//
// Parameters:
//   - cfg: Transport configuration; Origin is required
//
// Returns:
//   - *HTTP: Ready transport
//   - error: types.ErrInvalidConfig on a bad configuration
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Origin = strings.TrimRight(cfg.Origin, "/")

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: cfg.DisableKeepAlive,
				ForceAttemptHTTP2: true,
			},
		}
	}

	return &HTTP{
		cfg:     cfg,
		client:  client,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Do sends req and reads the whole body.
//
// Non-2xx responses return both the Response and a *StatusError.
func (h *HTTP) Do(ctx context.Context, req subscription.Request) (Response, error) {
	resp, err := h.do(ctx, req)
	h.metrics.RecordTransportOutcome(Outcome(err))
	if err == nil || resp.Body != nil {
		h.metrics.ObserveResponseSize(len(resp.Body))
	}

	return resp, err
}

func (h *HTTP) do(ctx context.Context, req subscription.Request) (Response, error) {
	txnCtx, cancel := context.WithTimeout(ctx, h.cfg.TransactionTimeout)
	defer cancel()

	url := req.URL(h.cfg.Origin, h.cfg.Encoder)
	httpReq, err := http.NewRequestWithContext(txnCtx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", h.cfg.UserAgent)
	if h.cfg.DisableKeepAlive {
		httpReq.Close = true
	}

	h.logger.Debug("sending poll request",
		"path", req.Path(h.cfg.Encoder),
		"query", req.Redacted().RawQuery(h.cfg.Encoder),
	)

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return Response{}, h.mapError(ctx, txnCtx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, h.cfg.MaxResponseSize+1))
	if err != nil {
		return Response{}, h.mapError(ctx, txnCtx, err)
	}
	if int64(len(body)) > h.cfg.MaxResponseSize {
		return Response{}, fmt.Errorf("%w: body exceeds %d bytes", types.ErrReplyTooBig, h.cfg.MaxResponseSize)
	}

	resp := Response{StatusCode: httpResp.StatusCode, Body: body}
	if !is2xx(httpResp.StatusCode) {
		h.logger.Warn("poll request failed", "status", httpResp.StatusCode)

		return resp, &StatusError{StatusCode: httpResp.StatusCode}
	}

	return resp, nil
}

func (h *HTTP) mapError(parent, txn context.Context, err error) error {
	if cerr := contextError(parent, txn); cerr != nil {
		return fmt.Errorf("%w: %w", cerr, err)
	}

	h.logger.Warn("poll request connection failure", "error", err)

	return fmt.Errorf("%w: %w", types.ErrConnectFailed, err)
}
