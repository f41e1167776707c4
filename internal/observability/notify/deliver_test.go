package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 1, func(context.Context) error {
		calls++
		return errors.New("down")
	})
	require.EqualError(t, err, "down")
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := WithRetry(ctx, 5, func(context.Context) error {
		cancel()
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if r.URL.Path == "/fail" {
			http.Error(w, "bad token", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, PostJSON(context.Background(), srv.Client(), srv.URL+"/ok", []byte(`{}`), "webhook"))

	err := PostJSON(context.Background(), srv.Client(), srv.URL+"/fail", []byte(`{}`), "webhook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "bad token")
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "x", Fallback(" ", "x"))
	assert.Equal(t, "y", Fallback("y", "x"))
}
