package subscription

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/types"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()

	sess, err := NewSession(SessionConfig{
		Identity: StaticIdentity{Key: "sub-key", User: "user-1"},
		Logger:   logger.NewTest(t),
	})
	require.NoError(t, err)

	return sess
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(SessionConfig{})
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = NewSession(SessionConfig{Identity: StaticIdentity{}})
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestNewSession_Defaults(t *testing.T) {
	sess, err := NewSession(SessionConfig{Identity: StaticIdentity{Key: "k"}})
	require.NoError(t, err)

	require.Equal(t, DefaultSDKName, sess.cfg.SDKName)
	require.Equal(t, DefaultMaxPositionTokenLength, sess.cfg.MaxPositionTokenLength)
	require.NotNil(t, sess.logger)
	require.NotNil(t, sess.metrics)

	require.Empty(t, sess.PositionToken())
	require.Zero(t, sess.Region())
	require.False(t, sess.HasRegion())
	require.False(t, sess.Pending())
}

func TestSession_Restore(t *testing.T) {
	sess := newTestSession(t)

	require.NoError(t, sess.Restore("17000000000000000", 12))
	require.Equal(t, "17000000000000000", sess.PositionToken())
	require.Equal(t, 12, sess.Region())
	require.True(t, sess.HasRegion())

	req, err := sess.PrepareNextPoll(PollParams{Channel: "chan1"})
	require.NoError(t, err)
	tt, _ := req.Param(ParamPositionToken)
	require.Equal(t, "17000000000000000", tt)
	tr, ok := req.Param(ParamRegion)
	require.True(t, ok)
	require.Equal(t, "12", tr)
}

func TestSession_Restore_Rejections(t *testing.T) {
	sess := newTestSession(t)

	err := sess.Restore("12345678901234567890", 1)
	require.ErrorIs(t, err, types.ErrFormat)
	require.Empty(t, sess.PositionToken())

	require.NoError(t, sess.ParseEnvelope([]byte(twoMessageEnvelope)))
	require.ErrorIs(t, sess.Restore("1", 1), types.ErrBufferNotEmpty)
}

func TestSession_Restore_EmptyToken(t *testing.T) {
	sess := newTestSession(t)

	require.NoError(t, sess.Restore("", 0))
	require.False(t, sess.HasRegion())

	req, err := sess.PrepareNextPoll(PollParams{Channel: "chan1"})
	require.NoError(t, err)
	tt, _ := req.Param(ParamPositionToken)
	require.Equal(t, InitialPositionToken, tt)
	_, ok := req.Param(ParamRegion)
	require.False(t, ok)
}

func TestSession_IsCurrent(t *testing.T) {
	sess := newTestSession(t)
	require.False(t, sess.IsCurrent(Message{}))

	require.NoError(t, sess.ParseEnvelope([]byte(roundTripEnvelope)))
	msg, ok, err := sess.NextMessage()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, sess.IsCurrent(msg))

	kept := msg.Clone()
	epoch := sess.Epoch()

	_, err = sess.PrepareNextPoll(PollParams{Channel: "chan1"})
	require.NoError(t, err)
	require.Greater(t, sess.Epoch(), epoch)
	require.False(t, sess.IsCurrent(msg))
	require.False(t, sess.IsCurrent(kept))

	require.Equal(t, "chan1", kept.ChannelName())
	require.Equal(t, `"hi"`, string(kept.Payload))
}
