package subscription

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/types"
)

const (
	roundTripEnvelope = `{"t":{"t":"15640000000000000","r":4},"m":[{"d":"hi","c":"chan1","p":{"t":"15640000000000000-1"}}]}`

	twoMessageEnvelope = `{"t":{"t":"15640000000000001","r":2},"m":[` +
		`{"d":{"n":1},"c":"chan1","p":{"t":"1"}},` +
		`{"d":[2],"c":"chan2","p":{"t":"2"}}]}`
)

func requireReason(t *testing.T, err error, kind error, reason string) {
	t.Helper()

	require.ErrorIs(t, err, kind)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
	require.Equal(t, reason, pe.Reason)
}

func TestParseEnvelope_RoundTrip(t *testing.T) {
	sess := newTestSession(t)

	require.NoError(t, sess.ParseEnvelope([]byte(roundTripEnvelope)))
	require.Equal(t, "15640000000000000", sess.PositionToken())
	require.Equal(t, 4, sess.Region())
	require.True(t, sess.HasRegion())
	require.True(t, sess.Pending())

	msg, ok, err := sess.NextMessage()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "chan1", string(msg.Channel))
	require.Equal(t, types.MessageTypePublished, msg.Type)
	require.Equal(t, `"hi"`, string(msg.Payload))
	require.Equal(t, "15640000000000000-1", string(msg.PublishToken))
	require.Empty(t, msg.MatchOrGroup)
	require.Empty(t, msg.Metadata)

	_, ok, err = sess.NextMessage()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseEnvelope_CopiesInput(t *testing.T) {
	sess := newTestSession(t)

	raw := []byte(roundTripEnvelope)
	require.NoError(t, sess.ParseEnvelope(raw))
	for i := range raw {
		raw[i] = 'x'
	}

	msg, ok, err := sess.NextMessage()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "chan1", string(msg.Channel))
}

func TestParseEnvelope_FastRejection(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"empty", "", "short"},
		{"short", `{"t":{"t":"1","r":1},"m":[]}`, "short"},
		{"not an object", `["t",{"t":"15640000000000000","r":4},"m",[]]`, "not_object"},
		{"missing closing brace", `{"t":{"t":"15640000000000000","r":4},"m":[] `, "not_object"},
		{"trailing newline", `{"t":{"t":"15640000000000000","r":4},"m":[]}` + "\n", "not_object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newTestSession(t)
			epoch := sess.Epoch()

			err := sess.ParseEnvelope([]byte(tt.raw))
			requireReason(t, err, types.ErrFormat, tt.reason)

			// Rejected before the body reached the receive buffer.
			require.Equal(t, epoch, sess.Epoch())
			require.Empty(t, sess.buf)
		})
	}
}

func TestParseEnvelope_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"no t", `{"x":{"t":"15640000000000000","r":4},"m":[]}`, "no_t"},
		{"t not object", `{"t":"15640000000000000000000000","m":[]}`, "no_t"},
		{"no t.t", `{"t":{"x":"15640000000000000","r":4},"m":[]}`, "no_tt"},
		{"t.t not string", `{"t":{"t":15640000000000000,"r":4},"m":[] }`, "tt_not_string"},
		{"t.t too long", `{"t":{"t":"15640000000000000000","r":4},"m":[]}`, "tt_too_long"},
		{"no t.r", `{"t":{"t":"15640000000000000","x":4},"m":[]}`, "no_tr"},
		{"t.r not int", `{"t":{"t":"15640000000000000","r":"4"},"m":[]}`, "tr_not_int"},
		{"t.r fraction", `{"t":{"t":"15640000000000000","r":4.5},"m":[]}`, "tr_not_int"},
		{"no m", `{"t":{"t":"15640000000000000","r":4},"x":[]}`, "no_m"},
		{"m not array", `{"t":{"t":"15640000000000000","r":4},"m":{}}`, "m_not_array"},
		{"truncated", `{"t":{"t":"15640000000000000","r":4},"m":[{"d":"x"}`, "malformed"},
		{"unbalanced", `{"t":{"t":"15640000000000000","r":4},"m":[{"d":"x"}}`, "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newTestSession(t)

			err := sess.ParseEnvelope([]byte(tt.raw))
			requireReason(t, err, types.ErrFormat, tt.reason)

			require.Empty(t, sess.PositionToken())
			require.False(t, sess.HasRegion())
			require.False(t, sess.Pending())
		})
	}
}

func TestParseEnvelope_MaxTokenLength(t *testing.T) {
	sess, err := NewSession(SessionConfig{
		Identity:               StaticIdentity{Key: "k"},
		MaxPositionTokenLength: 5,
	})
	require.NoError(t, err)

	err = sess.ParseEnvelope([]byte(roundTripEnvelope))
	requireReason(t, err, types.ErrFormat, "tt_too_long")

	require.NoError(t, sess.ParseEnvelope([]byte(`{"t":{"t":"12345","r":0},"m":[],"pad":"xxxxxxxx"}`)))
	require.Equal(t, "12345", sess.PositionToken())
}

func TestParseEnvelope_MissingRegionKeepsPosition(t *testing.T) {
	sess := newTestSession(t)

	require.NoError(t, sess.ParseEnvelope([]byte(roundTripEnvelope)))
	_, err := sess.DrainAll()
	require.NoError(t, err)

	err = sess.ParseEnvelope([]byte(`{"t":{"t":"15640000000000099"},"m":[{"d":1,"c":"a","p":{"t":"1"}}]}`))
	requireReason(t, err, types.ErrFormat, "no_tr")

	require.Equal(t, "15640000000000000", sess.PositionToken())
	require.Equal(t, 4, sess.Region())
	require.False(t, sess.Pending())
}

func TestParseEnvelope_MissingMessagesKeepsPosition(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.Restore("15640000000000000", 4))

	err := sess.ParseEnvelope([]byte(`{"t":{"t":"15640000000000077","r":9},"x":[]}`))
	requireReason(t, err, types.ErrFormat, "no_m")

	require.Equal(t, "15640000000000000", sess.PositionToken())
	require.Equal(t, 4, sess.Region())
}

func TestParseEnvelope_BufferNotEmpty(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.ParseEnvelope([]byte(twoMessageEnvelope)))

	err := sess.ParseEnvelope([]byte(roundTripEnvelope))
	require.ErrorIs(t, err, types.ErrBufferNotEmpty)
	require.Equal(t, "15640000000000001", sess.PositionToken())

	msgs, err := sess.DrainAll()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	require.NoError(t, sess.ParseEnvelope([]byte(roundTripEnvelope)))
	require.Equal(t, "15640000000000000", sess.PositionToken())
}

func TestParseEnvelope_EmptyArray(t *testing.T) {
	for _, raw := range []string{
		`{"t":{"t":"15640000000000000","r":4},"m":[]}`,
		`{"t":{"t":"15640000000000000","r":4},"m":[  ]}`,
		`{ "t" : { "t" : "15640000000000000" , "r" : 4 } , "m" : [ ] }`,
	} {
		sess := newTestSession(t)
		require.NoError(t, sess.ParseEnvelope([]byte(raw)), raw)
		require.False(t, sess.Pending(), raw)
		require.Equal(t, 4, sess.Region())
	}
}

func TestParseEnvelope_ErrorMessage(t *testing.T) {
	sess := newTestSession(t)

	err := sess.ParseEnvelope([]byte(`{"t":{"t":"15640000000000000","x":4},"m":[]}`))
	require.EqualError(t, err, "response format error: no region in response (envelope no_tr)")
}

func TestParseEnvelope_LogsReason(t *testing.T) {
	log := logger.NewTest(t)
	sess, err := NewSession(SessionConfig{
		Identity: StaticIdentity{Key: "sub-key"},
		Logger:   log,
	})
	require.NoError(t, err)

	err = sess.ParseEnvelope([]byte(`{"t":{"t":"15000000000000001"},"m":[{"d":1,"c":"a"}]}`))
	require.ErrorIs(t, err, types.ErrFormat)

	e, ok := log.Find("ERROR", "invalid response envelope")
	require.True(t, ok)
	require.Equal(t, "no_tr", e.Fields["reason"])
}
