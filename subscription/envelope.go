package subscription

import (
	"github.com/arloliu/subpoll/internal/jsonscan"
	"github.com/arloliu/subpoll/types"
)

// ParseEnvelope validates a poll response and loads its message array.
//
// The envelope shape is {"t":{"t":"<token>","r":<region>},"m":[...]}. Bodies
// that are too short or not framed by '{' and '}' are rejected before any field
// lookup. Token and region are committed together only when every field
// validated, so a failed parse leaves the previous position untouched.
//
// Parameters:
//   - raw: Response body; copied into the session's receive buffer
//
// Returns:
//   - error: types.ErrBufferNotEmpty while messages are pending, or a *ParseError
//     matching types.ErrFormat
func (s *Session) ParseEnvelope(raw []byte) error {
	if s.Pending() {
		return types.ErrBufferNotEmpty
	}
	if len(raw) < MinEnvelopeLength {
		return s.envelopeError("short", "response shorter than minimum envelope")
	}
	if raw[0] != '{' || raw[len(raw)-1] != '}' {
		return s.envelopeError("not_object", "response is not a JSON object")
	}

	s.buf = append(s.buf[:0], raw...)
	s.msgCursor = jsonscan.Span{}
	s.chanCursor = jsonscan.Span{}
	s.epoch++

	buf := s.buf
	root := jsonscan.Span{Start: 0, End: len(buf)}

	t, st := jsonscan.ObjectValue(buf, root, "t")
	if st != jsonscan.Found {
		return s.envelopeError(missingReason(st, "no_t"), "no position object in response")
	}
	if buf[t.Start] != '{' {
		return s.envelopeError("no_t", "position field is not an object")
	}

	tt, st := jsonscan.ObjectValue(buf, t, "t")
	if st != jsonscan.Found {
		return s.envelopeError(missingReason(st, "no_tt"), "no position token in response")
	}
	token, ok := jsonscan.Unquote(buf, tt)
	if !ok {
		return s.envelopeError("tt_not_string", "position token is not a string")
	}
	if token.Len() > s.cfg.MaxPositionTokenLength {
		s.logger.Error("position token too long",
			"length", token.Len(),
			"max", s.cfg.MaxPositionTokenLength,
		)

		return s.envelopeError("tt_too_long", "position token too long")
	}

	tr, st := jsonscan.ObjectValue(buf, t, "r")
	if st != jsonscan.Found {
		return s.envelopeError(missingReason(st, "no_tr"), "no region in response")
	}
	region, ok := jsonscan.ParseInt(buf, tr)
	if !ok {
		return s.envelopeError("tr_not_int", "region is not an integer")
	}

	m, st := jsonscan.ObjectValue(buf, root, "m")
	if st != jsonscan.Found {
		return s.envelopeError(missingReason(st, "no_m"), "no message array in response")
	}
	if buf[m.Start] != '[' {
		return s.envelopeError("m_not_array", "message field is not an array")
	}

	prevRegion := s.region
	s.token = string(token.Bytes(buf))
	s.region = region
	s.hasRegion = true
	if prevRegion != region {
		s.metrics.RecordRegionChange(prevRegion, region)
	}

	// Strip the brackets and surrounding whitespace so an empty array leaves
	// nothing pending.
	start := jsonscan.SkipSpace(buf, m.Start+1, m.End-1)
	end := m.End - 1
	for end > start && isSpace(buf[end-1]) {
		end--
	}
	s.msgCursor = jsonscan.Span{Start: start, End: end}

	return nil
}

func (s *Session) envelopeError(reason, msg string) error {
	s.logger.Error("invalid response envelope", "reason", reason)
	s.metrics.RecordParseError(StageEnvelope, reason)

	return formatError(StageEnvelope, reason, msg)
}

// missingReason maps a lookup status to a diagnosis reason.
func missingReason(st jsonscan.Status, notFound string) string {
	if st == jsonscan.Malformed {
		return "malformed"
	}

	return notFound
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
