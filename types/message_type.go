package types

// MessageType distinguishes regular published messages from signals.
//
// The zero value is MessageTypePublished, which is also what a message without
// an event marker decodes to.
type MessageType int

const (
	// MessageTypePublished is a regular published message.
	MessageTypePublished MessageType = iota

	// MessageTypeSignal is a lightweight signal (event marker "1").
	MessageTypeSignal
)

// String returns the metric/log label for the message type.
func (t MessageType) String() string {
	switch t {
	case MessageTypePublished:
		return "published"
	case MessageTypeSignal:
		return "signal"
	default:
		return "unknown"
	}
}
