package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/domain/surface"
)

const (
	defaultFocusWaitSeconds = 25
	maxFocusWaitSeconds     = 60
)

// NotificationCenter is the notification surface used by the message contract.
type NotificationCenter interface {
	List() []model.Notification
	Click(ctx context.Context, id string) (bool, error)
	ButtonClick(ctx context.Context, id string, index int) (bool, error)
}

// FocusWaiter blocks until a UI surface should come to the foreground.
type FocusWaiter interface {
	Await(ctx context.Context, wait time.Duration) (surface.FocusRequest, bool)
}

// NotificationHandlers serves /api/notifications and the focus long poll.
type NotificationHandlers struct {
	Center NotificationCenter
	Focus  FocusWaiter
	Logger *slog.Logger
}

// List handles GET /api/notifications.
func (h *NotificationHandlers) List(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, model.NotificationListResponse{Notifications: h.Center.List()})
}

// Click handles POST /api/notifications/{id}/click.
func (h *NotificationHandlers) Click(w http.ResponseWriter, r *http.Request) {
	focused, err := h.Center.Click(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.ClickResponse{Success: true, Focused: focused})
}

// Button handles POST /api/notifications/{id}/buttons/{index}.
func (h *NotificationHandlers) Button(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("button index must be a number")})
		return
	}
	focused, err := h.Center.ButtonClick(r.Context(), r.PathValue("id"), index)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.ClickResponse{Success: true, Focused: focused})
}

// AwaitFocus handles GET /api/surface/focus?wait=<seconds>. It answers 200
// with the request as soon as one is pending, or 204 when wait elapses.
func (h *NotificationHandlers) AwaitFocus(w http.ResponseWriter, r *http.Request) {
	wait := parseIntQuery(r, "wait", defaultFocusWaitSeconds)
	if wait <= 0 {
		wait = 1
	}
	wait = min(wait, maxFocusWaitSeconds)

	req, ok := h.Focus.Await(r.Context(), time.Duration(wait)*time.Second)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, model.FocusResponse{Focus: true, AuditID: req.AuditID, RequestedAt: req.RequestedAt})
}

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
