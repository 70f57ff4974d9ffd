package subscription

import (
	"strconv"
	"strings"

	"github.com/arloliu/subpoll/types"
)

// PollParams are the per-call parameters of a poll request.
type PollParams struct {
	// Channel is a comma separated channel list. May be empty when
	// ChannelGroup is set.
	Channel string

	// ChannelGroup is a comma separated channel group list.
	ChannelGroup string

	// Heartbeat is the presence heartbeat in seconds; nil omits it.
	Heartbeat *uint

	// FilterExpr is a server side message filter; empty omits it.
	FilterExpr string
}

type escapeMode uint8

const (
	escapeNone escapeMode = iota
	escapeValue
	escapeList
)

// QueryParam is one query parameter holding its logical (unescaped) value.
type QueryParam struct {
	Key   string
	Value string

	escape escapeMode
}

// Request describes one poll request. It is built, not sent, by the session.
type Request struct {
	// Key is the subscribe key placed in the path.
	Key string

	// Channel is the logical channel list, or ChannelPlaceholder.
	Channel string

	// Query holds the parameters in their wire order.
	Query []QueryParam
}

// Path renders the request path with the channel list escaped element-wise.
func (r Request) Path(enc Encoder) string {
	if enc == nil {
		enc = PercentEncoder
	}

	var sb strings.Builder
	sb.WriteString("/v2/subscribe/")
	sb.WriteString(enc.Escape(r.Key))
	sb.WriteByte('/')
	sb.WriteString(escapeEach(enc, r.Channel))
	sb.WriteString("/0")

	return sb.String()
}

// RawQuery renders the query string without the leading '?'.
func (r Request) RawQuery(enc Encoder) string {
	if enc == nil {
		enc = PercentEncoder
	}

	var sb strings.Builder
	for i, p := range r.Query {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		switch p.escape {
		case escapeValue:
			sb.WriteString(enc.Escape(p.Value))
		case escapeList:
			sb.WriteString(escapeEach(enc, p.Value))
		default:
			sb.WriteString(p.Value)
		}
	}

	return sb.String()
}

// URL renders the full request URL against origin, e.g. "https://ps.example.com".
//
// Parameters:
//   - origin: Scheme and host; a trailing '/' is ignored
//   - enc: Percent-encoder for free-form values; nil uses PercentEncoder
//
// Returns:
//   - string: Absolute request URL
func (r Request) URL(origin string, enc Encoder) string {
	origin = strings.TrimRight(origin, "/")
	q := r.RawQuery(enc)
	if q == "" {
		return origin + r.Path(enc)
	}

	return origin + r.Path(enc) + "?" + q
}

// Param returns the logical value of the named query parameter.
func (r Request) Param(key string) (string, bool) {
	for _, p := range r.Query {
		if p.Key == key {
			return p.Value, true
		}
	}

	return "", false
}

// Redacted returns a copy of the request with the auth credential masked,
// suitable for logging.
func (r Request) Redacted() Request {
	out := r
	out.Query = make([]QueryParam, len(r.Query))
	for i, p := range r.Query {
		if p.Key == ParamAuth {
			p.Value = redactedValue
		}
		out.Query[i] = p
	}

	return out
}

const redactedValue = "REDACTED"

// PrepareNextPoll builds the next poll request from the session position.
//
// It fails with types.ErrBufferNotEmpty while messages of the previous response
// are still pending, leaving everything untouched. On success the receive buffer
// and cursors are reset, which invalidates all earlier message views.
//
// Parameters:
//   - p: Channel list, channel groups, heartbeat and filter expression
//
// Returns:
//   - Request: Path and ordered query parameters
//   - error: types.ErrInvalidChannel or types.ErrBufferNotEmpty
func (s *Session) PrepareNextPoll(p PollParams) (Request, error) {
	if p.Channel == "" && p.ChannelGroup == "" {
		return Request{}, types.ErrInvalidChannel
	}
	if s.Pending() {
		return Request{}, types.ErrBufferNotEmpty
	}

	channel := p.Channel
	if channel == "" {
		channel = ChannelPlaceholder
	}

	tt := s.token
	if tt == "" {
		tt = InitialPositionToken
	}

	query := make([]QueryParam, 0, 8)
	query = append(query,
		QueryParam{Key: ParamPositionToken, Value: tt},
		QueryParam{Key: ParamSDK, Value: s.cfg.SDKName},
	)
	if s.hasRegion {
		query = append(query, QueryParam{Key: ParamRegion, Value: strconv.Itoa(s.region)})
	}
	if p.ChannelGroup != "" {
		query = append(query, QueryParam{Key: ParamChannelGroup, Value: p.ChannelGroup, escape: escapeList})
	}
	if uuid := s.cfg.Identity.UUID(); uuid != "" {
		query = append(query, QueryParam{Key: ParamUUID, Value: uuid, escape: escapeValue})
	}
	if auth := s.cfg.Identity.AuthKey(); auth != "" {
		query = append(query, QueryParam{Key: ParamAuth, Value: auth, escape: escapeValue})
	}
	if p.FilterExpr != "" {
		query = append(query, QueryParam{Key: ParamFilterExpr, Value: p.FilterExpr, escape: escapeValue})
	}
	if p.Heartbeat != nil {
		query = append(query, QueryParam{Key: ParamHeartbeat, Value: strconv.FormatUint(uint64(*p.Heartbeat), 10)})
	}

	s.reset()

	return Request{
		Key:     s.cfg.Identity.SubscribeKey(),
		Channel: channel,
		Query:   query,
	}, nil
}
