// Package checkpoint stores the subscription position so a restarted poller
// resumes from the last drained response instead of "now".
//
// KV keeps the position in a NATS JetStream key-value bucket. Memory keeps it
// in process and is meant for tests and single-run tools.
package checkpoint
