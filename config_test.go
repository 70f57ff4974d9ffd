package subpoll

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/transport"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 310*time.Second, cfg.TransactionTimeout)
	require.Equal(t, 19, cfg.MaxPositionTokenLength)
	require.Equal(t, 1, cfg.PollBurst)
	require.Zero(t, cfg.MaxPollRate)
	require.Zero(t, cfg.Heartbeat)
	require.EqualValues(t, transport.DefaultMaxResponseSize, cfg.MaxResponseSize)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 250*time.Millisecond, cfg.Retry.BaseBackoff)
	require.Equal(t, 30*time.Second, cfg.Retry.MaxBackoff)
	require.Equal(t, 2.0, cfg.Retry.Multiplier)
	require.Equal(t, "subpoll-checkpoints", cfg.Checkpoint.Bucket)
	require.Equal(t, "default", cfg.Checkpoint.Key)
}

func TestSetDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		var cfg Config
		SetDefaults(&cfg)

		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := Config{
			TransactionTimeout: time.Minute,
			PollBurst:          4,
			Retry:              RetryConfig{BaseBackoff: time.Second},
			Checkpoint:         CheckpointConfig{Key: "orders"},
		}
		SetDefaults(&cfg)

		require.Equal(t, time.Minute, cfg.TransactionTimeout)
		require.Equal(t, 4, cfg.PollBurst)
		require.Equal(t, time.Second, cfg.Retry.BaseBackoff)
		require.Equal(t, 30*time.Second, cfg.Retry.MaxBackoff)
		require.Equal(t, "orders", cfg.Checkpoint.Key)
		require.Equal(t, "subpoll-checkpoints", cfg.Checkpoint.Bucket)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := TestConfig()
		cfg.Channels = []string{"orders"}

		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing subscribe key", func(c *Config) { c.SubscribeKey = "" }},
		{"no channels", func(c *Config) { c.Channels = nil }},
		{"empty channel name", func(c *Config) { c.Channels = []string{"a", ""} }},
		{"empty group name", func(c *Config) { c.ChannelGroups = []string{""} }},
		{"transaction timeout too short", func(c *Config) { c.TransactionTimeout = 10 * time.Millisecond }},
		{"token length zero", func(c *Config) { c.MaxPositionTokenLength = 0 }},
		{"negative poll rate", func(c *Config) { c.MaxPollRate = -1 }},
		{"zero burst", func(c *Config) { c.PollBurst = 0 }},
		{"zero base backoff", func(c *Config) { c.Retry.BaseBackoff = 0 }},
		{"max below base", func(c *Config) { c.Retry.MaxBackoff = time.Millisecond }},
		{"multiplier below one", func(c *Config) { c.Retry.Multiplier = 0.5 }},
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("channel groups only", func(t *testing.T) {
		cfg := valid()
		cfg.Channels = nil
		cfg.ChannelGroups = []string{"cg-orders"}

		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	cfg := TestConfig()
	cfg.Channels = []string{"orders"}
	cfg.Origin = "http://ps.example.com"
	cfg.AuthKey = "secret"

	// Only checks that warnings do not panic; output goes to the test log.
	cfg.ValidateWithWarnings(logger.NewTest(t))
}

func TestConfig_PollParams(t *testing.T) {
	cfg := TestConfig()
	cfg.Channels = []string{"a", "b"}
	cfg.ChannelGroups = []string{"g1", "g2"}
	cfg.FilterExpr = "region == 'eu'"

	p := cfg.PollParams()
	require.Equal(t, "a,b", p.Channel)
	require.Equal(t, "g1,g2", p.ChannelGroup)
	require.Equal(t, "region == 'eu'", p.FilterExpr)
	require.Nil(t, p.Heartbeat)

	cfg.Heartbeat = 300
	p = cfg.PollParams()
	require.NotNil(t, p.Heartbeat)
	require.Equal(t, uint(300), *p.Heartbeat)
}

func TestConfig_IdentityAndHTTPConfig(t *testing.T) {
	cfg := TestConfig()
	cfg.UUID = "client-1"
	cfg.AuthKey = "auth-1"
	cfg.Origin = "https://ps.example.com"
	cfg.DisableKeepAlive = true

	id := cfg.Identity()
	require.Equal(t, "sub-test", id.SubscribeKey())
	require.Equal(t, "client-1", id.UUID())
	require.Equal(t, "auth-1", id.AuthKey())

	hc := cfg.HTTPConfig()
	require.Equal(t, "https://ps.example.com", hc.Origin)
	require.True(t, hc.DisableKeepAlive)
	require.Equal(t, 2*time.Second, hc.TransactionTimeout)
	require.EqualValues(t, transport.DefaultMaxResponseSize, hc.MaxResponseSize)
}

const sampleYAML = `
origin: https://ps.example.com
subscribeKey: sub-c-123
uuid: worker-7
channels: [orders, payments]
channelGroups: [audit]
heartbeat: 300
transactionTimeout: 5m
maxPollRate: 2.5
retry:
  baseBackoff: 100ms
  maxBackoff: 10s
checkpoint:
  key: orders-eu
  ttl: 24h
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleYAML))
	require.NoError(t, err)

	require.Equal(t, "https://ps.example.com", cfg.Origin)
	require.Equal(t, "sub-c-123", cfg.SubscribeKey)
	require.Equal(t, "worker-7", cfg.UUID)
	require.Equal(t, []string{"orders", "payments"}, cfg.Channels)
	require.Equal(t, []string{"audit"}, cfg.ChannelGroups)
	require.Equal(t, uint(300), cfg.Heartbeat)
	require.Equal(t, 5*time.Minute, cfg.TransactionTimeout)
	require.Equal(t, 2.5, cfg.MaxPollRate)
	require.Equal(t, 100*time.Millisecond, cfg.Retry.BaseBackoff)
	require.Equal(t, 10*time.Second, cfg.Retry.MaxBackoff)
	require.Equal(t, 2.0, cfg.Retry.Multiplier)
	require.Equal(t, "orders-eu", cfg.Checkpoint.Key)
	require.Equal(t, "subpoll-checkpoints", cfg.Checkpoint.Bucket)
	require.Equal(t, 24*time.Hour, cfg.Checkpoint.TTL)
}

func TestParseConfig_Errors(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseConfig([]byte("subscribeKey: k\nchannels: [a]\nchanels: [b]\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("empty document fails validation", func(t *testing.T) {
		_, err := ParseConfig(nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := ParseConfig([]byte("subscribeKey: k\nchannels: [a]\ntransactionTimeout: soon\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "sub-c-123", cfg.SubscribeKey)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
