// Package testing provides test utilities for subpoll.
//
// Key utilities:
//   - EnvelopeBuilder: Composes poll response bodies
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - StartBridge: Fake subscribe origin over NATS request/reply
//   - CreateJetStreamKV: In-memory KV bucket
//
// Example usage:
//
//	import (
//	    "testing"
//	    subtest "github.com/arloliu/subpoll/testing"
//	)
//
//	func TestMyHandler(t *testing.T) {
//	    body := subtest.NewEnvelope("15000000000000001", 4).
//	        Add(subtest.EnvelopeMessage{Payload: "hi", Channel: "orders", PublishToken: "1"}).
//	        MustBuild()
//	    _, nc := subtest.StartEmbeddedNATS(t)
//	    subtest.StartBridge(t, nc, "subpoll.poll", body)
//	}
package testing
