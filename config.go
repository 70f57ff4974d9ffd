package subpoll

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/subpoll/subscription"
	"github.com/arloliu/subpoll/transport"
)

// RetryConfig controls the delay between failed polls.
//
// Delays follow decorrelated jitter: each delay is drawn between BaseBackoff
// and Multiplier times the previous delay, capped at MaxBackoff. A successful
// poll resets the sequence.
type RetryConfig struct {
	// BaseBackoff is the first and smallest delay.
	//
	// Default: 250ms
	BaseBackoff time.Duration `yaml:"baseBackoff"`

	// MaxBackoff caps every delay.
	//
	// Default: 30s
	MaxBackoff time.Duration `yaml:"maxBackoff"`

	// Multiplier is the growth factor between consecutive delays.
	//
	// Default: 2.0
	Multiplier float64 `yaml:"multiplier"`

	// Seed makes the jitter sequence deterministic when non-zero. Tests only.
	Seed int64 `yaml:"seed"`
}

// CheckpointConfig names where the stream position is stored.
type CheckpointConfig struct {
	// Bucket is the JetStream KV bucket.
	//
	// Default: "subpoll-checkpoints"
	Bucket string `yaml:"bucket"`

	// Key identifies this subscription inside the bucket.
	//
	// Default: "default"
	Key string `yaml:"key"`

	// TTL expires positions that were not refreshed (0 = never).
	TTL time.Duration `yaml:"ttl"`
}

// Config is the configuration for the Poller.
//
// All duration fields accept standard Go duration strings like "250ms", "10s", "1m".
type Config struct {
	// Origin is the scheme and host of the subscribe service. Only used by
	// HTTPConfig; other transports ignore it.
	Origin string `yaml:"origin"`

	// SubscribeKey is placed in the request path. Required.
	SubscribeKey string `yaml:"subscribeKey"`

	// UUID identifies the caller. Empty omits it.
	UUID string `yaml:"uuid"`

	// AuthKey is the access credential. Empty omits it.
	AuthKey string `yaml:"authKey"`

	// Channels lists the subscribed channels.
	Channels []string `yaml:"channels"`

	// ChannelGroups lists the subscribed channel groups. At least one channel
	// or channel group is required.
	ChannelGroups []string `yaml:"channelGroups"`

	// FilterExpr is a server side message filter.
	FilterExpr string `yaml:"filterExpr"`

	// Heartbeat is the presence timeout in seconds sent with every poll (0 = omitted).
	Heartbeat uint `yaml:"heartbeat"`

	// TransactionTimeout bounds one poll request. Long-poll responses are
	// held open by the origin, so this must exceed the server hold time.
	//
	// Default: 310s
	TransactionTimeout time.Duration `yaml:"transactionTimeout"`

	// MaxPositionTokenLength bounds the position token accepted from a response.
	//
	// Default: 19
	MaxPositionTokenLength int `yaml:"maxPositionTokenLength"`

	// MaxPollRate limits poll requests per second (0 = unlimited).
	MaxPollRate float64 `yaml:"maxPollRate"`

	// PollBurst is the rate limiter burst.
	//
	// Default: 1
	PollBurst int `yaml:"pollBurst"`

	// UserAgent overrides the HTTP User-Agent header.
	UserAgent string `yaml:"userAgent"`

	// DisableKeepAlive closes the HTTP connection after each poll.
	DisableKeepAlive bool `yaml:"disableKeepAlive"`

	// MaxResponseSize caps a response body in bytes.
	//
	// Default: 32 MiB
	MaxResponseSize int64 `yaml:"maxResponseSize"`

	// ShutdownTimeout bounds Stop when the caller context has no deadline.
	//
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Retry controls backoff after failed polls.
	Retry RetryConfig `yaml:"retry"`

	// Checkpoint configures position persistence.
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		TransactionTimeout:     310 * time.Second,
		MaxPositionTokenLength: subscription.DefaultMaxPositionTokenLength,
		PollBurst:              1,
		MaxResponseSize:        transport.DefaultMaxResponseSize,
		ShutdownTimeout:        10 * time.Second,
		Retry: RetryConfig{
			BaseBackoff: 250 * time.Millisecond,
			MaxBackoff:  30 * time.Second,
			Multiplier:  2.0,
		},
		Checkpoint: CheckpointConfig{
			Bucket: "subpoll-checkpoints",
			Key:    "default",
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.TransactionTimeout == 0 {
		cfg.TransactionTimeout = defaults.TransactionTimeout
	}
	if cfg.MaxPositionTokenLength == 0 {
		cfg.MaxPositionTokenLength = defaults.MaxPositionTokenLength
	}
	if cfg.PollBurst == 0 {
		cfg.PollBurst = defaults.PollBurst
	}
	if cfg.MaxResponseSize == 0 {
		cfg.MaxResponseSize = defaults.MaxResponseSize
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.Retry.BaseBackoff == 0 {
		cfg.Retry.BaseBackoff = defaults.Retry.BaseBackoff
	}
	if cfg.Retry.MaxBackoff == 0 {
		cfg.Retry.MaxBackoff = defaults.Retry.MaxBackoff
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = defaults.Retry.Multiplier
	}
	if cfg.Checkpoint.Bucket == "" {
		cfg.Checkpoint.Bucket = defaults.Checkpoint.Bucket
	}
	if cfg.Checkpoint.Key == "" {
		cfg.Checkpoint.Key = defaults.Checkpoint.Key
	}
	// Note: Heartbeat, MaxPollRate and Checkpoint.TTL of 0 are meaningful, so no default
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - SubscribeKey is set
//   - At least one channel or channel group, with no empty names
//   - TransactionTimeout >= transport.MinTransactionTimeout
//   - MaxPositionTokenLength > 0
//   - MaxPollRate >= 0 and PollBurst >= 1
//   - 0 < BaseBackoff <= MaxBackoff and Multiplier >= 1
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.SubscribeKey == "" {
		return fmt.Errorf("%w: subscribeKey is required", ErrInvalidConfig)
	}
	if len(cfg.Channels) == 0 && len(cfg.ChannelGroups) == 0 {
		return fmt.Errorf("%w: at least one channel or channel group is required", ErrInvalidConfig)
	}
	for _, ch := range cfg.Channels {
		if ch == "" {
			return fmt.Errorf("%w: empty channel name", ErrInvalidConfig)
		}
	}
	for _, g := range cfg.ChannelGroups {
		if g == "" {
			return fmt.Errorf("%w: empty channel group name", ErrInvalidConfig)
		}
	}
	if cfg.TransactionTimeout < transport.MinTransactionTimeout {
		return fmt.Errorf("%w: transactionTimeout (%v) must be >= %v",
			ErrInvalidConfig, cfg.TransactionTimeout, transport.MinTransactionTimeout)
	}
	if cfg.MaxPositionTokenLength <= 0 {
		return fmt.Errorf("%w: maxPositionTokenLength must be > 0, got %d", ErrInvalidConfig, cfg.MaxPositionTokenLength)
	}
	if cfg.MaxPollRate < 0 {
		return fmt.Errorf("%w: maxPollRate must be >= 0, got %v", ErrInvalidConfig, cfg.MaxPollRate)
	}
	if cfg.PollBurst < 1 {
		return fmt.Errorf("%w: pollBurst must be >= 1, got %d", ErrInvalidConfig, cfg.PollBurst)
	}
	if cfg.Retry.BaseBackoff <= 0 {
		return fmt.Errorf("%w: retry.baseBackoff must be > 0, got %v", ErrInvalidConfig, cfg.Retry.BaseBackoff)
	}
	if cfg.Retry.MaxBackoff < cfg.Retry.BaseBackoff {
		return fmt.Errorf("%w: retry.maxBackoff (%v) must be >= retry.baseBackoff (%v)",
			ErrInvalidConfig, cfg.Retry.MaxBackoff, cfg.Retry.BaseBackoff)
	}
	if cfg.Retry.Multiplier < 1 {
		return fmt.Errorf("%w: retry.multiplier must be >= 1, got %v", ErrInvalidConfig, cfg.Retry.Multiplier)
	}

	return nil
}

// ValidateWithWarnings logs warnings for legal but risky values.
//
// This is called after Validate() in NewPoller() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.TransactionTimeout < 30*time.Second {
		logger.Warn(
			"transactionTimeout is shorter than a typical long-poll hold, polls may time out while idle",
			"transactionTimeout", cfg.TransactionTimeout,
			"recommended", "310s",
		)
	}

	if cfg.Retry.MaxBackoff > 5*time.Minute {
		logger.Warn(
			"retry.maxBackoff is very long, recovery after an outage will be slow",
			"maxBackoff", cfg.Retry.MaxBackoff,
		)
	}

	if cfg.AuthKey != "" && strings.HasPrefix(cfg.Origin, "http://") {
		logger.Warn("auth key will be sent over plain HTTP", "origin", cfg.Origin)
	}
}

// PollParams builds the per-poll parameters from the subscription fields.
func (cfg *Config) PollParams() subscription.PollParams {
	p := subscription.PollParams{
		Channel:      strings.Join(cfg.Channels, ","),
		ChannelGroup: strings.Join(cfg.ChannelGroups, ","),
		FilterExpr:   cfg.FilterExpr,
	}
	if cfg.Heartbeat > 0 {
		hb := cfg.Heartbeat
		p.Heartbeat = &hb
	}

	return p
}

// Identity returns a static identity from SubscribeKey, UUID and AuthKey.
func (cfg *Config) Identity() subscription.StaticIdentity {
	return subscription.StaticIdentity{
		Key:  cfg.SubscribeKey,
		User: cfg.UUID,
		Auth: cfg.AuthKey,
	}
}

// HTTPConfig returns the HTTP transport settings derived from cfg.
func (cfg *Config) HTTPConfig() transport.HTTPConfig {
	return transport.HTTPConfig{
		Origin:             cfg.Origin,
		UserAgent:          cfg.UserAgent,
		DisableKeepAlive:   cfg.DisableKeepAlive,
		TransactionTimeout: cfg.TransactionTimeout,
		MaxResponseSize:    cfg.MaxResponseSize,
	}
}

// ParseConfig decodes a YAML document, applies defaults and validates it.
//
// Unknown keys are rejected so typos do not silently fall back to defaults.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - Config: Parsed configuration
//   - error: Decode or validation error
func ParseConfig(data []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decode yaml: %w", ErrInvalidConfig, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
//
// Example:
//
//	cfg, err := subpoll.LoadConfig("/etc/subpoll/config.yaml")
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	return ParseConfig(data)
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Returns:
//   - Config: Configuration with short timeouts and backoff
//
// Example:
//
//	cfg := subpoll.TestConfig()
//	cfg.Channels = []string{"chan1"}
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.SubscribeKey = "sub-test"
	cfg.TransactionTimeout = 2 * time.Second
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.Retry.BaseBackoff = 10 * time.Millisecond
	cfg.Retry.MaxBackoff = 50 * time.Millisecond

	return cfg
}
