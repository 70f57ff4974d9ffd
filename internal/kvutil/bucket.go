// Package kvutil provides utilities for working with NATS JetStream KeyValue stores.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultAttempts is used when EnsureBucket is called with attempts <= 0.
const DefaultAttempts = 3

// EnsureBucket opens the KV bucket described by cfg, creating it if needed.
//
// Several pollers may share one checkpoint bucket and race to create it, so a
// create that reports ErrBucketExists falls back to opening the bucket. Other
// failures are retried with a doubling delay starting at 10ms.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - cfg: KV bucket configuration
//   - attempts: Maximum number of attempts (default: 3)
//
// Returns:
//   - jetstream.KeyValue: The opened bucket
//   - error: The last failure once all attempts are used
func EnsureBucket(
	ctx context.Context,
	js jetstream.JetStream,
	cfg jetstream.KeyValueConfig,
	attempts int,
) (jetstream.KeyValue, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	delay := 10 * time.Millisecond
	for attempt := 1; ; attempt++ {
		kv, err := openOrCreate(ctx, js, cfg)
		if err == nil {
			return kv, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, ctx.Err())
		}
		if attempt >= attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	return nil, fmt.Errorf("ensure bucket %s after %d attempts: %w", cfg.Bucket, attempts, lastErr)
}

func openOrCreate(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := js.CreateKeyValue(ctx, cfg)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketExists) {
		return nil, err
	}

	kv, err = js.KeyValue(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists but failed to open: %w", err)
	}

	return kv, nil
}
