// Package types provides core type definitions and interfaces for the subpoll library.
//
// This package contains shared types that are used across multiple packages in the
// library. By keeping these types in a separate package, we avoid import cycles
// between the root subpoll package, the subscription core, and the transports.
//
// Key types:
//   - State: Poller lifecycle state
//   - MessageType: Published or Signal message marker
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
//   - Hooks: Poller lifecycle callbacks
package types
