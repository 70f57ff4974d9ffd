package subpoll

import (
	"github.com/arloliu/subpoll/subscription"
	"github.com/arloliu/subpoll/types"
)

// Re-export types from the types package.
//
// Internal packages depend on types without importing the root package, while
// callers still get subpoll.State, subpoll.Logger, etc.
type (
	State       = types.State
	MessageType = types.MessageType
	Position    = types.Position
	StatusError = types.StatusError
)

// Re-export interfaces from the types package for convenience.
type (
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
	Checkpointer     = types.Checkpointer
)

// Message is a decoded message view. See subscription.Message for its lifetime rules.
type Message = subscription.Message

// Re-export State constants.
const (
	StateIdle     = types.StateIdle
	StatePolling  = types.StatePolling
	StateDraining = types.StateDraining
	StateBackoff  = types.StateBackoff
	StateStopped  = types.StateStopped
)

// Re-export MessageType constants.
const (
	MessageTypePublished = types.MessageTypePublished
	MessageTypeSignal    = types.MessageTypeSignal
)
