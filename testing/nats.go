package testing

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StartEmbeddedNATS starts an in-process NATS server with JetStream enabled.
//
// The server listens on a random port and keeps JetStream data in t.TempDir().
// Server and connection are shut down by t.Cleanup.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected NATS client
//
// Example:
//
//	func TestCheckpoint(t *testing.T) {
//	    _, nc := subtest.StartEmbeddedNATS(t)
//	    js, _ := jetstream.New(nc)
//	    cp, _ := checkpoint.NewKV(t.Context(), js, checkpoint.KVConfig{})
//	}
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("Embedded NATS server not ready within timeout")
	}

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(3),
	)
	if err != nil {
		ns.Shutdown()
		t.Fatalf("Failed to connect to embedded NATS server: %v", err)
	}

	// Cleanup runs in reverse registration order; close the client first.
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, nc
}

// CreateJetStreamKV creates an in-memory JetStream KV bucket.
//
// Parameters:
//   - t: Testing context
//   - nc: NATS connection (from StartEmbeddedNATS)
//   - bucketName: Name of the KV bucket to create
//
// Returns:
//   - jetstream.KeyValue: The created bucket
func CreateJetStreamKV(t *testing.T, nc *nats.Conn, bucketName string) jetstream.KeyValue {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}

	kv, err := js.CreateKeyValue(t.Context(), jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Test KV bucket: %s", bucketName),
		TTL:         1 * time.Minute,
		Storage:     jetstream.MemoryStorage,
		History:     1,
		Replicas:    1,
	})
	if err != nil {
		t.Fatalf("Failed to create KV bucket %s: %v", bucketName, err)
	}

	return kv
}

// Bridge is a fake subscribe origin served over NATS request/reply.
//
// Each request is answered with the next queued body. Once the queue is empty
// requests go unanswered, so the caller sees an idle long poll that ends with
// its own timeout or cancellation.
type Bridge struct {
	mu       sync.Mutex
	bodies   [][]byte
	requests []nats.Header
}

// StartBridge subscribes a Bridge on subject and queues bodies.
//
// The subscription is removed by t.Cleanup.
func StartBridge(t *testing.T, nc *nats.Conn, subject string, bodies ...[]byte) *Bridge {
	t.Helper()

	b := &Bridge{bodies: bodies}
	sub, err := nc.Subscribe(subject, b.serve)
	if err != nil {
		t.Fatalf("Failed to subscribe bridge on %s: %v", subject, err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("Failed to flush bridge subscription: %v", err)
	}

	t.Cleanup(func() {
		_ = sub.Unsubscribe()
	})

	return b
}

func (b *Bridge) serve(m *nats.Msg) {
	b.mu.Lock()
	b.requests = append(b.requests, m.Header)
	if len(b.bodies) == 0 {
		b.mu.Unlock()
		return
	}
	body := b.bodies[0]
	b.bodies = b.bodies[1:]
	b.mu.Unlock()

	_ = m.Respond(body)
}

// Push queues more bodies.
func (b *Bridge) Push(bodies ...[]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bodies = append(b.bodies, bodies...)
}

// Requests returns the headers of every request received so far.
func (b *Bridge) Requests() []nats.Header {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]nats.Header(nil), b.requests...)
}
