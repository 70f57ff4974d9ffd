package subpoll

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/subpoll/checkpoint"
	"github.com/arloliu/subpoll/internal/logger"
	subtest "github.com/arloliu/subpoll/testing"
	"github.com/arloliu/subpoll/transport"
)

func TestPoller_NATSBridgeResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	_, nc := subtest.StartEmbeddedNATS(t)
	bridge := subtest.StartBridge(t, nc, "subpoll.poll", firstEnvelope)

	js, err := jetstream.New(nc)
	require.NoError(t, err)
	cp, err := checkpoint.NewKV(ctx, js, checkpoint.KVConfig{Key: "orders", Storage: jetstream.MemoryStorage})
	require.NoError(t, err)

	cfg := TestConfig()
	cfg.Channels = []string{"orders"}

	received := make(chan string, 4)
	handler := MessageHandlerFunc(func(_ context.Context, m Message) error {
		received <- string(m.PublishToken)
		return nil
	})

	newPoller := func() *Poller {
		tr, err := transport.NewNATS(nc, transport.NATSConfig{
			Subject:            "subpoll.poll",
			TransactionTimeout: cfg.TransactionTimeout,
		})
		require.NoError(t, err)

		p, err := NewPoller(&cfg, tr, handler, WithCheckpointer(cp), WithLogger(logger.NewTest(t)))
		require.NoError(t, err)

		return p
	}

	first := newPoller()
	require.NoError(t, first.Start(ctx))
	for range 2 {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("message not delivered over NATS")
		}
	}
	require.Eventually(t, func() bool { return len(bridge.Requests()) == 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, first.Stop(ctx))

	pos, err := cp.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "15000000000000001", pos.Token)
	require.Equal(t, 4, pos.Region)

	second := newPoller()
	require.NoError(t, second.Start(ctx))
	require.Eventually(t, func() bool { return len(bridge.Requests()) == 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, second.Stop(ctx))

	q, err := url.ParseQuery(bridge.Requests()[2].Get(transport.HeaderQuery))
	require.NoError(t, err)
	require.Equal(t, "15000000000000001", q.Get("tt"))
	require.Equal(t, "4", q.Get("tr"))
}
