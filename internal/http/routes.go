// Package httpx exposes the audit proxy and the UI-surface message contract over HTTP.
package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/target/uxaudit/internal/core"
)

// RouterServices holds all the services needed by the HTTP router.
// A nil Relayer or Audits disables the matching routes.
type RouterServices struct {
	Relayer       core.Relayer
	Audits        AuditsService
	Notifications NotificationCenter
	Focus         FocusWaiter
	Store         HealthChecker
	MaxImageBytes int64
	Logger        *slog.Logger
	Now           func() time.Time
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	if services.Relayer != nil {
		registerProxyRoutes(mux, &ProxyHandlers{
			Relayer:       services.Relayer,
			MaxImageBytes: services.MaxImageBytes,
			Logger:        services.Logger,
		})
	}
	if services.Audits != nil {
		registerAuditRoutes(mux, &AuditHandlers{
			Svc:           services.Audits,
			MaxImageBytes: services.MaxImageBytes,
			Logger:        services.Logger,
			Now:           services.Now,
		})
	}
	if services.Notifications != nil && services.Focus != nil {
		registerNotificationRoutes(mux, &NotificationHandlers{
			Center: services.Notifications,
			Focus:  services.Focus,
			Logger: services.Logger,
		})
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.Store))

	return mux
}

func registerProxyRoutes(mux *http.ServeMux, h *ProxyHandlers) {
	mux.HandleFunc("POST /audit", h.Audit)
}

func registerAuditRoutes(mux *http.ServeMux, h *AuditHandlers) {
	mux.HandleFunc("POST /api/audits", h.Start)
	mux.HandleFunc("GET /api/audits", h.List)
	mux.HandleFunc("GET /api/audits/latest", h.Latest)
	mux.HandleFunc("DELETE /api/audits/latest", h.ClearLatest)
	mux.HandleFunc("GET /api/audits/latest/report", h.Report)
	mux.HandleFunc("GET /api/audits/{id}", h.Get)
}

func registerNotificationRoutes(mux *http.ServeMux, h *NotificationHandlers) {
	mux.HandleFunc("GET /api/notifications", h.List)
	mux.HandleFunc("POST /api/notifications/{id}/click", h.Click)
	mux.HandleFunc("POST /api/notifications/{id}/buttons/{index}", h.Button)
	mux.HandleFunc("GET /api/surface/focus", h.AwaitFocus)
}
