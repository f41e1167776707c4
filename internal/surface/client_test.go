package surface

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/uxaudit/internal/domain/model"
	apperrors "github.com/target/uxaudit/internal/errors"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("POST /api/audits", func(w http.ResponseWriter, r *http.Request) {
		var req model.StartAuditRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.ImageData == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "message": "imageData is required"})
			return
		}
		writeJSON(w, http.StatusAccepted, model.StartAuditResponse{Success: true, Message: "started", ID: "a-1"})
	})
	mux.HandleFunc("GET /api/audits/latest", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, model.LatestResultResponse{Result: &model.LatestResult{ID: "a-1", Result: "text", Timestamp: 42}})
	})
	mux.HandleFunc("DELETE /api/audits/latest", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, model.AckResponse{Success: true})
	})
	mux.HandleFunc("GET /api/audits/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "audit " + r.PathValue("id") + " not found"})
	})
	mux.HandleFunc("POST /api/notifications/{id}/buttons/{index}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audit-complete-a-1", r.PathValue("id"))
		assert.Equal(t, "0", r.PathValue("index"))
		writeJSON(w, http.StatusOK, model.ClickResponse{Success: true, Focused: true})
	})
	mux.HandleFunc("GET /api/surface/focus", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("wait") == "0" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, model.FocusResponse{Focus: true, AuditID: "a-1"})
	})
	mux.HandleFunc("GET /api/audits/latest/report", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pdf", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="UI-UX-Audit-2025-01-01.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.3"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_MessageContract(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	ctx := context.Background()

	ack, err := c.StartAudit(ctx, model.StartAuditRequest{ImageData: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	assert.Equal(t, "a-1", ack.ID)

	_, err = c.StartAudit(ctx, model.StartAuditRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	latest, err := c.LatestResult(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(42), latest.Timestamp)

	require.NoError(t, c.ClearResult(ctx))

	_, err = c.Audit(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	click, err := c.PressButton(ctx, "audit-complete-a-1", 0)
	require.NoError(t, err)
	assert.True(t, click.Focused)
}

func TestClient_AwaitFocus(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	focus, err := c.AwaitFocus(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, focus)

	focus, err = c.AwaitFocus(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, focus)
	assert.Equal(t, "a-1", focus.AuditID)
}

func TestClient_Report(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := c.Report(context.Background(), "pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, "UI-UX-Audit-2025-01-01.pdf", name)
	assert.Equal(t, "%PDF-1.3", buf.String())
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient("", nil)
	require.Error(t, err)
}
