package kvutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	subtest "github.com/arloliu/subpoll/testing"
)

func TestEnsureBucket(t *testing.T) {
	_, nc := subtest.StartEmbeddedNATS(t)

	ctx := context.Background()
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	t.Run("creates missing bucket", func(t *testing.T) {
		kv, err := EnsureBucket(ctx, js, jetstream.KeyValueConfig{Bucket: "ckpt-create", History: 1}, 0)
		require.NoError(t, err)
		require.Equal(t, "ckpt-create", kv.Bucket())
	})

	t.Run("opens existing bucket", func(t *testing.T) {
		cfg := jetstream.KeyValueConfig{Bucket: "ckpt-existing", History: 1}
		first, err := js.CreateKeyValue(ctx, cfg)
		require.NoError(t, err)
		_, err = first.Put(ctx, "k", []byte("v"))
		require.NoError(t, err)

		// A different config makes CreateKeyValue report the bucket as existing.
		cfg.Description = "changed"
		kv, err := EnsureBucket(ctx, js, cfg, 3)
		require.NoError(t, err)

		entry, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v", string(entry.Value()))
	})

	t.Run("concurrent pollers share one bucket", func(t *testing.T) {
		const workers = 8
		cfg := jetstream.KeyValueConfig{Bucket: "ckpt-shared", History: 1, TTL: 5 * time.Second}

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := EnsureBucket(ctx, js, cfg, 5); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := EnsureBucket(cancelled, js, jetstream.KeyValueConfig{Bucket: "ckpt-cancelled"}, 3)
		require.ErrorIs(t, err, context.Canceled)
	})
}
