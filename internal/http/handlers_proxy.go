package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/http/validation"
)

// jsonEnvelopeSlack covers the {"image": ...} wrapper around a max-size data URL.
const jsonEnvelopeSlack = 1 << 10

// ProxyHandlers serves the stateless audit proxy endpoint.
type ProxyHandlers struct {
	Relayer       core.Relayer
	MaxImageBytes int64
	Logger        *slog.Logger
}

// Audit handles POST /audit: one image in, one critique out.
func (h *ProxyHandlers) Audit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxImageBytes+jsonEnvelopeSlack)

	var req model.ProxyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	text, err := h.Relayer.Relay(r.Context(), req.Image)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.ProxyResponse{Result: text})
}
