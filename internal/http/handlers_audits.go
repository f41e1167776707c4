package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/uxaudit/internal/domain/model"
	apperrors "github.com/target/uxaudit/internal/errors"
	"github.com/target/uxaudit/internal/http/validation"
	"github.com/target/uxaudit/internal/report"
	"github.com/target/uxaudit/internal/service"
)

// AuditsService is the lifecycle manager surface used by the message contract.
type AuditsService interface {
	Start(ctx context.Context, req model.StartAuditRequest) (*model.Audit, error)
	Latest(ctx context.Context) (*model.LatestResult, error)
	Clear(ctx context.Context) error
	Get(ctx context.Context, id string) (*model.Audit, error)
	List(ctx context.Context) []model.Audit
}

// AuditHandlers serves /api/audits.
type AuditHandlers struct {
	Svc           AuditsService
	MaxImageBytes int64
	Logger        *slog.Logger
	Now           func() time.Time
}

// Start handles POST /api/audits. It replies as soon as the audit is dispatched.
func (h *AuditHandlers) Start(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxImageBytes+jsonEnvelopeSlack)

	var req model.StartAuditRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	audit, err := h.Svc.Start(r.Context(), req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, model.StartAuditResponse{
		Success: true,
		Message: service.StartedAck,
		ID:      audit.ID,
	})
}

// Latest handles GET /api/audits/latest. An empty slot is {"result": null}.
func (h *AuditHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.Latest(r.Context())
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.LatestResultResponse{Result: result})
}

// ClearLatest handles DELETE /api/audits/latest.
func (h *AuditHandlers) ClearLatest(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Clear(r.Context()); err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.AckResponse{Success: true})
}

// List handles GET /api/audits.
func (h *AuditHandlers) List(w http.ResponseWriter, r *http.Request) {
	audits := h.Svc.List(r.Context())
	WriteJSON(w, http.StatusOK, model.AuditListResponse{Audits: audits, Count: len(audits)})
}

// Get handles GET /api/audits/{id}.
func (h *AuditHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("audit id is required")})
		return
	}
	audit, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, audit)
}

// Report handles GET /api/audits/latest/report?format=html|pdf.
func (h *AuditHandlers) Report(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "pdf" {
		WriteServiceError(w, r, h.Logger, apperrors.ValidationField("format", "format must be html or pdf"))
		return
	}

	result, err := h.Svc.Latest(r.Context())
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if result == nil {
		WriteServiceError(w, r, h.Logger, apperrors.NotFound("no audit result available"))
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	rep := report.Build(*result, now())

	switch format {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+rep.Filename+`"`)
		err = report.RenderPDF(w, rep)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = report.RenderHTML(w, rep)
	}
	if err != nil && h.Logger != nil {
		// Headers are already sent; nothing to report to the client.
		h.Logger.ErrorContext(r.Context(), "render report failed", "format", format, "error", err)
	}
}
