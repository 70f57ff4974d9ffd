package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/subpoll/internal/logger"
	"github.com/arloliu/subpoll/subscription"
	"github.com/arloliu/subpoll/types"
)

func newTestHTTP(t *testing.T, origin string, mutate func(*HTTPConfig)) *HTTP {
	t.Helper()

	cfg := HTTPConfig{
		Origin: origin,
		Logger: logger.NewTest(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	h, err := NewHTTP(cfg)
	require.NoError(t, err)

	return h
}

func TestHTTPConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  HTTPConfig
	}{
		{"missing origin", HTTPConfig{}},
		{"bad scheme", HTTPConfig{Origin: "ftp://example.com"}},
		{"timeout too short", HTTPConfig{Origin: "https://example.com", TransactionTimeout: 50 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTP(tt.cfg)
			require.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}
}

func TestHTTPConfig_Defaults(t *testing.T) {
	cfg := HTTPConfig{Origin: "https://example.com"}
	cfg.SetDefaults()

	require.Equal(t, DefaultUserAgent, cfg.UserAgent)
	require.Equal(t, DefaultTransactionTimeout, cfg.TransactionTimeout)
	require.EqualValues(t, DefaultMaxResponseSize, cfg.MaxResponseSize)
	require.NotNil(t, cfg.Encoder)
	require.NoError(t, cfg.Validate())
}

func TestHTTP_Do_Success(t *testing.T) {
	var gotPath, gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(testEnvelope))
	}))
	defer srv.Close()

	rec := newRecordingMetrics()
	h := newTestHTTP(t, srv.URL+"/", func(c *HTTPConfig) {
		c.UserAgent = "subpoll-test"
		c.Metrics = rec
	})

	req := newRequest(t, subscription.PollParams{Channel: "chan 1", FilterExpr: "a == 'b'"})
	resp, err := h.Do(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, testEnvelope, string(resp.Body))
	require.Equal(t, "/v2/subscribe/sub-key/chan%201/0", gotPath)
	require.Equal(t, "tt=0&pnsdk="+subscription.DefaultSDKName+"&uuid=user-1&filter-expr=a%20%3D%3D%20%27b%27", gotQuery)
	require.Equal(t, "subpoll-test", gotAgent)

	outcomes, sizes := rec.snapshot()
	require.Equal(t, []string{OutcomeOK}, outcomes)
	require.Equal(t, []int{len(testEnvelope)}, sizes)
}

func TestHTTP_Do_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, nil)
	resp, err := h.Do(context.Background(), newRequest(t, subscription.PollParams{Channel: "a"}))

	require.ErrorIs(t, err, types.ErrHTTPStatus)
	require.NotErrorIs(t, err, types.ErrFormat)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusForbidden, se.StatusCode)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, `{"error":"forbidden"}`, string(resp.Body))
}

func TestHTTP_Do_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	rec := newRecordingMetrics()
	h := newTestHTTP(t, srv.URL, func(c *HTTPConfig) {
		c.TransactionTimeout = MinTransactionTimeout
		c.Metrics = rec
	})

	start := time.Now()
	_, err := h.Do(context.Background(), newRequest(t, subscription.PollParams{Channel: "a"}))
	require.ErrorIs(t, err, types.ErrTimeout)
	require.NotErrorIs(t, err, types.ErrCancelled)
	require.Less(t, time.Since(start), 3*time.Second)

	outcomes, _ := rec.snapshot()
	require.Equal(t, []string{OutcomeTimeout}, outcomes)
}

func TestHTTP_Do_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := h.Do(ctx, newRequest(t, subscription.PollParams{Channel: "a"}))
	require.ErrorIs(t, err, types.ErrCancelled)
	require.NotErrorIs(t, err, types.ErrTimeout)
}

func TestHTTP_Do_ConnectFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	origin := srv.URL
	srv.Close()

	h := newTestHTTP(t, origin, nil)
	_, err := h.Do(context.Background(), newRequest(t, subscription.PollParams{Channel: "a"}))
	require.ErrorIs(t, err, types.ErrConnectFailed)
	require.True(t, types.IsTransportError(err))
}

func TestHTTP_Do_ReplyTooBig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, func(c *HTTPConfig) {
		c.MaxResponseSize = 63
	})
	_, err := h.Do(context.Background(), newRequest(t, subscription.PollParams{Channel: "a"}))
	require.ErrorIs(t, err, types.ErrReplyTooBig)

	h = newTestHTTP(t, srv.URL, func(c *HTTPConfig) {
		c.MaxResponseSize = 64
	})
	resp, err := h.Do(context.Background(), newRequest(t, subscription.PollParams{Channel: "a"}))
	require.NoError(t, err)
	require.Len(t, resp.Body, 64)
}

func TestHTTP_Do_DisableKeepAlive(t *testing.T) {
	closeRequested := make(chan bool, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		closeRequested <- r.Close
	}))
	defer srv.Close()

	h := newTestHTTP(t, srv.URL, func(c *HTTPConfig) {
		c.DisableKeepAlive = true
	})
	_, err := h.Do(context.Background(), newRequest(t, subscription.PollParams{Channel: "a"}))
	require.NoError(t, err)
	require.True(t, <-closeRequested)
}

func TestHTTP_Do_DebugLogRedactsAuth(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(testEnvelope))
	}))
	defer srv.Close()

	log := logger.NewTest(t)
	h := newTestHTTP(t, srv.URL, func(c *HTTPConfig) { c.Logger = log })

	sess, err := subscription.NewSession(subscription.SessionConfig{
		Identity: subscription.StaticIdentity{Key: "sub-key", User: "user-1", Auth: "s3cret"},
	})
	require.NoError(t, err)
	req, err := sess.PrepareNextPoll(subscription.PollParams{Channel: "chan1"})
	require.NoError(t, err)

	_, err = h.Do(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, gotQuery, "auth=s3cret")

	entry, ok := log.Find("DEBUG", "sending poll request")
	require.True(t, ok)
	require.Equal(t, "/v2/subscribe/sub-key/chan1/0", entry.Fields["path"])
	require.Contains(t, entry.Fields["query"], "auth=REDACTED")
	require.NotContains(t, entry.Fields["query"], "s3cret")
}
