package subscription

import (
	"bytes"
	"iter"

	"github.com/sugawarayuuta/sonnet"

	"github.com/arloliu/subpoll/internal/jsonscan"
	"github.com/arloliu/subpoll/types"
)

// Message is a view of one message object in the receive buffer.
//
// The byte slices alias the session buffer and are only valid until the next
// PrepareNextPoll or ParseEnvelope. Use Clone to keep a message longer.
type Message struct {
	// Payload is the raw JSON value of "d".
	Payload []byte

	// Channel is the channel name with quotes stripped.
	Channel []byte

	// Type is Signal when "e" is "1", Published otherwise.
	Type types.MessageType

	// PublishToken is the per-message token "p.t" with quotes stripped.
	PublishToken []byte

	// MatchOrGroup is the matched pattern or group "b" with quotes stripped so
	// it compares directly against channel names. A non-string value is kept
	// as its raw JSON token. Empty when absent.
	MatchOrGroup []byte

	// Metadata is the raw JSON value of "u"; empty when absent.
	Metadata []byte

	epoch uint64
}

// ChannelName returns the channel as a string.
func (m Message) ChannelName() string {
	return string(m.Channel)
}

// Clone returns a copy that does not reference the session buffer.
func (m Message) Clone() Message {
	return Message{
		Payload:      bytes.Clone(m.Payload),
		Channel:      bytes.Clone(m.Channel),
		Type:         m.Type,
		PublishToken: bytes.Clone(m.PublishToken),
		MatchOrGroup: bytes.Clone(m.MatchOrGroup),
		Metadata:     bytes.Clone(m.Metadata),
	}
}

// DecodePayload unmarshals the payload JSON into v.
func (m Message) DecodePayload(v any) error {
	return sonnet.Unmarshal(m.Payload, v)
}

// DecodeMetadata unmarshals the metadata JSON into v. It is a no-op when the
// message carries no metadata.
func (m Message) DecodeMetadata(v any) error {
	if len(m.Metadata) == 0 {
		return nil
	}

	return sonnet.Unmarshal(m.Metadata, v)
}

// NextMessage decodes the next message of the loaded response.
//
// It returns ok=false with a nil error once the array is drained, and keeps
// doing so on further calls. A byte other than '{' where a message should start,
// or an object without its closing brace, drains the remaining array and returns
// types.ErrStructuralViolation. A message missing a mandatory field returns
// types.ErrFormat; the cursor is already past that object, so iteration may go on.
//
// Returns:
//   - Message: The decoded view when ok is true
//   - bool: false when no message was produced
//   - error: *ParseError on a malformed message or array
func (s *Session) NextMessage() (Message, bool, error) {
	cur := s.msgCursor
	if cur.Empty() {
		return Message{}, false, nil
	}

	buf := s.buf
	i := jsonscan.SkipSpace(buf, cur.Start, cur.End)
	if i >= cur.End {
		s.msgCursor.Start = cur.End

		return Message{}, false, nil
	}
	if buf[i] != '{' {
		return Message{}, false, s.haltIteration("not_object", "expected '{' at message start", i)
	}

	objEnd, ok := jsonscan.FindEndComplex(buf, i, cur.End)
	if !ok || buf[objEnd] != '}' {
		return Message{}, false, s.haltIteration("unterminated_object", "message object has no closing brace", i)
	}

	next := jsonscan.SkipSpace(buf, objEnd+1, cur.End)
	if next < cur.End && buf[next] == ',' {
		next = jsonscan.SkipSpace(buf, next+1, cur.End)
	}
	s.msgCursor.Start = next

	msg, err := s.decodeMessage(jsonscan.Span{Start: i, End: objEnd + 1})
	if err != nil {
		return Message{}, false, err
	}
	s.metrics.RecordMessage(msg.Type.String())

	return msg, true, nil
}

// Messages returns an iterator over the remaining messages of the loaded
// response. Per-message format errors are yielded with a zero Message and
// iteration continues; a structural violation is yielded once and ends it.
func (s *Session) Messages() iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for {
			msg, ok, err := s.NextMessage()
			if err != nil {
				if !yield(Message{}, err) {
					return
				}
				if !s.Pending() {
					return
				}

				continue
			}
			if !ok {
				return
			}
			if !yield(msg, nil) {
				return
			}
		}
	}
}

// DrainAll decodes every remaining message. Messages that fail to decode are
// skipped; the first error is returned alongside the messages that decoded.
func (s *Session) DrainAll() ([]Message, error) {
	var (
		msgs     []Message
		firstErr error
	)
	for msg, err := range s.Messages() {
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}
		msgs = append(msgs, msg)
	}

	return msgs, firstErr
}

func (s *Session) haltIteration(reason, msg string, offset int) error {
	s.logger.Error("message array structural violation",
		"reason", reason,
		"offset", offset,
	)
	s.metrics.RecordParseError(StageMessage, reason)
	s.msgCursor.Start = s.msgCursor.End

	return structuralError(reason, msg)
}

func (s *Session) messageError(reason, msg string) error {
	s.logger.Error("invalid message object", "reason", reason)
	s.metrics.RecordParseError(StageMessage, reason)

	return formatError(StageMessage, reason, msg)
}

func (s *Session) decodeMessage(obj jsonscan.Span) (Message, error) {
	buf := s.buf
	msg := Message{epoch: s.epoch}

	d, st := jsonscan.ObjectValue(buf, obj, "d")
	if st != jsonscan.Found {
		return Message{}, s.messageError(missingReason(st, "no_payload"), "message has no payload")
	}
	msg.Payload = view(buf, d)

	c, st := jsonscan.ObjectValue(buf, obj, "c")
	if st != jsonscan.Found {
		return Message{}, s.messageError(missingReason(st, "no_channel"), "message has no channel")
	}
	channel, ok := jsonscan.Unquote(buf, c)
	if !ok {
		return Message{}, s.messageError("channel_not_string", "message channel is not a string")
	}
	msg.Channel = view(buf, channel)

	e, st := jsonscan.ObjectValue(buf, obj, "e")
	switch st {
	case jsonscan.Found:
		if jsonscan.EqualsString(buf, e, "1") {
			msg.Type = types.MessageTypeSignal
		}
	case jsonscan.Malformed:
		return Message{}, s.messageError("malformed", "message object is malformed")
	}

	p, st := jsonscan.ObjectValue(buf, obj, "p")
	if st != jsonscan.Found {
		return Message{}, s.messageError(missingReason(st, "no_publish_token"), "message has no publish info")
	}
	if buf[p.Start] != '{' {
		return Message{}, s.messageError("no_publish_token", "message publish info is not an object")
	}
	pt, st := jsonscan.ObjectValue(buf, p, "t")
	if st != jsonscan.Found {
		return Message{}, s.messageError(missingReason(st, "no_publish_token"), "message has no publish token")
	}
	token, ok := jsonscan.Unquote(buf, pt)
	if !ok {
		return Message{}, s.messageError("publish_token_not_string", "message publish token is not a string")
	}
	msg.PublishToken = view(buf, token)

	b, st := jsonscan.ObjectValue(buf, obj, "b")
	switch st {
	case jsonscan.Found:
		if inner, ok := jsonscan.Unquote(buf, b); ok {
			b = inner
		}
		msg.MatchOrGroup = view(buf, b)
	case jsonscan.Malformed:
		return Message{}, s.messageError("malformed", "message object is malformed")
	}

	u, st := jsonscan.ObjectValue(buf, obj, "u")
	switch st {
	case jsonscan.Found:
		msg.Metadata = view(buf, u)
	case jsonscan.Malformed:
		return Message{}, s.messageError("malformed", "message object is malformed")
	}

	return msg, nil
}

// view returns buf[sp] with its capacity capped so appends never write into
// the receive buffer.
func view(buf []byte, sp jsonscan.Span) []byte {
	return buf[sp.Start:sp.End:sp.End]
}
