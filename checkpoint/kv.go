package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/sugawarayuuta/sonnet"

	"github.com/arloliu/subpoll/internal/kvutil"
	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/types"
)

// Defaults for KVConfig.
const (
	DefaultBucket = "subpoll-checkpoints"
	DefaultKey    = "default"
)

// KVConfig configures a KV checkpointer.
type KVConfig struct {
	// Bucket is the JetStream KV bucket name.
	//
	// Default: "subpoll-checkpoints"
	Bucket string

	// Key identifies this subscription inside the bucket. Pollers sharing a
	// bucket must use distinct keys.
	//
	// Default: "default"
	Key string

	// TTL expires positions that were not refreshed. Zero keeps them forever.
	TTL time.Duration

	// Storage selects file or memory storage for a newly created bucket.
	//
	// Default: jetstream.FileStorage
	Storage jetstream.StorageType

	// Logger receives checkpoint diagnostics.
	Logger types.Logger
}

// KV persists the position in a JetStream key-value bucket.
//
// Positions are stored as JSON so they can be inspected with the nats CLI.
type KV struct {
	kv     jetstream.KeyValue
	key    string
	logger types.Logger
}

var _ types.Checkpointer = (*KV)(nil)

// NewKV opens (or creates) the checkpoint bucket.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - js: JetStream context
//   - cfg: Bucket and key configuration
//
// Returns:
//   - *KV: Ready checkpointer
//   - error: Bucket creation failure
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	cp, err := checkpoint.NewKV(ctx, js, checkpoint.KVConfig{Key: "orders"})
func NewKV(ctx context.Context, js jetstream.JetStream, cfg KVConfig) (*KV, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	kv, err := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "subpoll stream positions",
		History:     1,
		TTL:         cfg.TTL,
		Storage:     cfg.Storage,
	}, kvutil.DefaultAttempts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint bucket: %w", err)
	}

	return &KV{kv: kv, key: cfg.Key, logger: cfg.Logger}, nil
}

// Load reads the stored position.
//
// Returns:
//   - types.Position: The stored position
//   - error: types.ErrNoCheckpoint when the key is absent
func (k *KV) Load(ctx context.Context) (types.Position, error) {
	entry, err := k.kv.Get(ctx, k.key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return types.Position{}, types.ErrNoCheckpoint
		}

		return types.Position{}, fmt.Errorf("load checkpoint %s: %w", k.key, err)
	}

	var pos types.Position
	if err := sonnet.Unmarshal(entry.Value(), &pos); err != nil {
		return types.Position{}, fmt.Errorf("decode checkpoint %s: %w", k.key, err)
	}

	return pos, nil
}

// Save writes pos, stamping SavedAt when it is zero.
func (k *KV) Save(ctx context.Context, pos types.Position) error {
	if pos.SavedAt.IsZero() {
		pos.SavedAt = time.Now().UTC()
	}

	data, err := sonnet.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", k.key, err)
	}

	rev, err := k.kv.Put(ctx, k.key, data)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", k.key, err)
	}

	k.logger.Debug("checkpoint saved", "key", k.key, "token", pos.Token, "region", pos.Region, "revision", rev)

	return nil
}
