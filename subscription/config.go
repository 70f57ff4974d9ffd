package subscription

import (
	"fmt"

	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/internal/metrics"
	"github.com/arloliu/subpoll/types"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	// Identity supplies the subscribe key, caller UUID and auth key. Required.
	Identity Identity

	// SDKName is sent as the "pnsdk" query parameter. Sent as-is, so it must
	// already be percent-encoded.
	//
	// Default: DefaultSDKName
	SDKName string

	// MaxPositionTokenLength bounds the unquoted length of "t.t" in a response.
	//
	// Default: 19
	MaxPositionTokenLength int

	// Logger receives parse diagnostics.
	//
	// Default: no-op logger
	Logger types.Logger

	// Metrics records parse errors and message counts.
	//
	// Default: no-op collector
	Metrics types.MetricsCollector
}

func (c *SessionConfig) applyDefaults() {
	if c.SDKName == "" {
		c.SDKName = DefaultSDKName
	}
	if c.MaxPositionTokenLength <= 0 {
		c.MaxPositionTokenLength = DefaultMaxPositionTokenLength
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewNop()
	}
}

func (c *SessionConfig) validate() error {
	if c.Identity == nil {
		return fmt.Errorf("%w: identity is required", types.ErrInvalidConfig)
	}
	if c.Identity.SubscribeKey() == "" {
		return fmt.Errorf("%w: subscribe key is required", types.ErrInvalidConfig)
	}

	return nil
}
