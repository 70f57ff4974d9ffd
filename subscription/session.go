package subscription

import (
	"github.com/arloliu/subpoll/internal/jsonscan"
	"github.com/arloliu/subpoll/types"
)

// Session holds the cross-poll state of one logical subscription: the last
// acknowledged position token and region, the owned receive buffer, and the
// cursor over the still-unconsumed message array.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg     SessionConfig
	logger  types.Logger
	metrics types.MetricsCollector

	token     string
	region    int
	hasRegion bool

	// buf holds the most recent response. Its length is the number of valid
	// bytes; capacity is reused across polls.
	buf []byte

	msgCursor  jsonscan.Span
	chanCursor jsonscan.Span

	// epoch changes every time buf is replaced or reset. Message views carry
	// the epoch they were produced under.
	epoch uint64
}

// NewSession creates a Session in the initial "start now" position.
//
// Parameters:
//   - cfg: Session configuration; Identity with a non-empty subscribe key is required
//
// Returns:
//   - *Session: Ready session
//   - error: types.ErrInvalidConfig when the identity is missing
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &Session{
		cfg:     cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// PositionToken returns the last committed position token, or "" before the
// first successful envelope parse.
func (s *Session) PositionToken() string {
	return s.token
}

// Region returns the last committed region. It is 0 until a response supplies one.
func (s *Session) Region() int {
	return s.region
}

// HasRegion reports whether a region has been committed, either by a response
// or by Restore.
func (s *Session) HasRegion() bool {
	return s.hasRegion
}

// Pending reports whether messages from the last response are still undrained.
func (s *Session) Pending() bool {
	return !s.msgCursor.Empty()
}

// Epoch returns the current buffer generation.
func (s *Session) Epoch() uint64 {
	return s.epoch
}

// IsCurrent reports whether the byte views of m still reference the live
// receive buffer. Views produced before the last buffer replacement or poll
// reset are stale and must not be read.
func (s *Session) IsCurrent(m Message) bool {
	return m.epoch != 0 && m.epoch == s.epoch
}

// Restore seeds the session position from a saved checkpoint so the next poll
// resumes where a previous process stopped.
//
// Parameters:
//   - token: Saved position token; must not exceed the configured maximum length
//   - region: Saved region
//
// Returns:
//   - error: types.ErrBufferNotEmpty while messages are pending, types.ErrFormat for an oversized token
func (s *Session) Restore(token string, region int) error {
	if s.Pending() {
		return types.ErrBufferNotEmpty
	}
	if len(token) > s.cfg.MaxPositionTokenLength {
		return formatError(StageEnvelope, "tt_too_long", "restored position token too long")
	}

	s.token = token
	s.region = region
	s.hasRegion = token != ""

	return nil
}

// reset drops the receive buffer contents and both cursors.
func (s *Session) reset() {
	s.buf = s.buf[:0]
	s.msgCursor = jsonscan.Span{}
	s.chanCursor = jsonscan.Span{}
	s.epoch++
}
