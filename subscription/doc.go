// Package subscription implements the long-poll subscribe protocol core.
//
// A Session carries the state of one logical subscription across an unbounded
// series of poll cycles:
//
//	req, err := sess.PrepareNextPoll(subscription.PollParams{Channel: "chan1"})
//	// hand req to a transport, receive the body
//	err = sess.ParseEnvelope(body)
//	for msg, err := range sess.Messages() {
//	    // msg borrows from the session buffer; use or Clone it here
//	}
//
// Nothing in this package performs I/O or locking. A Session must be owned by a
// single goroutine (or guarded by one external mutex). PrepareNextPoll refuses
// to run while messages of the previous response are still pending, which is
// what keeps at most one request in flight.
//
// Responses are decoded without building a tree: field lookups are byte-range
// scans over the owned receive buffer, and Message views alias that buffer.
package subscription
