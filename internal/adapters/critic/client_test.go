package critic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/uxaudit/internal/errors"
)

func newTestClient(t *testing.T, srv *httptest.Server, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL:   srv.URL + "/v1/",
		APIKey:    "sk-test",
		Model:     "gpt-4o",
		MaxTokens: 1000,
		Prompt:    "Review this page.",
		Timeout:   5 * time.Second,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestClient_CritiqueSendsChatRequest(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"1. [HIGH] Fix contrast"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	text, err := c.Critique(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "1. [HIGH] Fix contrast", text)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.InDelta(t, 1000, captured["max_tokens"], 0)

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])

	parts := msg["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, map[string]any{"type": "text", "text": "Review this page."}, parts[0])
	assert.Equal(t, map[string]any{
		"type":      "image_url",
		"image_url": map[string]any{"url": "data:image/png;base64,AAAA"},
	}, parts[1])
}

func TestClient_NoAuthorizationWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) { cfg.APIKey = "" })
	_, err := c.Critique(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
}

func TestClient_CustomResultPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"output":{"text":"custom critique"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) { cfg.ResultPath = "output.text" })
	text, err := c.Critique(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "custom critique", text)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "openai error envelope",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Incorrect API key provided",
		},
		{
			name:       "plain text error",
			status:     http.StatusBadGateway,
			body:       "bad gateway",
			wantStatus: http.StatusBadGateway,
			wantMsg:    "bad gateway",
		},
		{
			name:       "empty error body",
			status:     http.StatusInternalServerError,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "500 Internal Server Error",
		},
		{
			name:       "missing content",
			status:     http.StatusOK,
			body:       `{"choices":[]}`,
			wantStatus: http.StatusOK,
			wantMsg:    "response has no text at choices[0].message.content",
		},
		{
			name:       "malformed json",
			status:     http.StatusOK,
			body:       `{"choices":`,
			wantStatus: http.StatusOK,
			wantMsg:    "malformed response body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			_, err := c.Critique(context.Background(), "data:image/png;base64,AAAA")
			require.Error(t, err)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.wantStatus, svcErr.StatusCode)
			assert.Equal(t, tt.wantMsg, svcErr.Message)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.Critique(context.Background(), "data:image/png;base64,AAAA")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Zero(t, svcErr.StatusCode)
	assert.Contains(t, svcErr.Error(), "unreachable")
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Model: "m", Prompt: "p"})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://x", Prompt: "p"})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://x", Model: "m"})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://x", Model: "m", Prompt: "p", ResultPath: "choices[0"})
	require.Error(t, err)
}

type stubCritic struct {
	calls atomic.Int32
	err   error
	text  string
}

func (s *stubCritic) Critique(context.Context, string) (string, error) {
	s.calls.Add(1)
	return s.text, s.err
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubCritic{err: &ServiceError{StatusCode: http.StatusBadGateway, Message: "down"}}
	b := NewBreaker(stub, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for range 2 {
		_, err := b.Critique(context.Background(), "img")
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Critique(context.Background(), "img")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, int32(2), stub.calls.Load(), "open breaker must not call through")
}

func TestBreaker_CanceledCallsDoNotTrip(t *testing.T) {
	stub := &stubCritic{err: context.Canceled}
	b := NewBreaker(stub, BreakerConfig{ConsecutiveFailures: 1, OpenTimeout: time.Minute})

	for range 3 {
		_, err := b.Critique(context.Background(), "img")
		assert.True(t, errors.Is(err, context.Canceled))
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	stub := &stubCritic{text: "critique"}
	b := NewBreaker(stub, BreakerConfig{})

	text, err := b.Critique(context.Background(), "img")
	require.NoError(t, err)
	assert.Equal(t, "critique", text)
}
