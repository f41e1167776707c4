package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/uxaudit/config"
	"github.com/target/uxaudit/internal/domain/surface"
	httpx "github.com/target/uxaudit/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives listener failures; nil only logs them.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:      logger,
		Services:    routerServices(cfg.Services, appCfg, logger),
		CORSOrigins: appCfg.HTTP.CORSOrigins,
	})

	return startServer(serverParams{
		Logger:  logger,
		Handler: handler,
		HTTP:    appCfg.HTTP,
		ErrCh:   cfg.ErrCh,
	})
}

// routerServices maps the container onto the router. A process that relays to
// a remote proxy does not expose POST /audit itself.
func routerServices(svcs ServiceContainer, cfg *config.AppConfig, logger *slog.Logger) httpx.RouterServices {
	rs := httpx.RouterServices{
		MaxImageBytes: cfg.Audit.MaxImageBytes,
		Logger:        logger,
	}
	if svcs.Proxy != nil {
		rs.Relayer = svcs.Proxy
	}
	if svcs.Audits != nil {
		rs.Audits = svcs.Audits
	}
	if svcs.Notifications != nil {
		rs.Notifications = svcs.Notifications
	}
	if svcs.Focus != nil {
		rs.Focus = svcs.Focus
	}
	if svcs.Latest != nil {
		rs.Store = svcs.Latest
	}
	return rs
}

type httpHandlerConfig struct {
	Logger      *slog.Logger
	Services    httpx.RouterServices
	CORSOrigins []string
}

// buildHTTPHandler wraps the router. Order: Recover -> Logging -> CORS -> Router.
func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	h := httpx.NewRouter(cfg.Services)
	h = httpx.CORS(cfg.CORSOrigins)(h)
	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)
	return h
}

type serverParams struct {
	Logger  *slog.Logger
	Handler http.Handler
	HTTP    config.HTTPConfig
	ErrCh   chan<- error
}

func startServer(p serverParams) *http.Server {
	addr := p.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":5000"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      p.Handler,
		ReadTimeout:  p.HTTP.ReadTimeout,
		WriteTimeout: p.HTTP.WriteTimeout,
		IdleTimeout:  p.HTTP.IdleTimeout,
	}

	go func() {
		p.Logger.Info("starting HTTP server", "addr", server.Addr)
		err := server.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		p.Logger.Error("HTTP server failed", "error", err)
		if p.ErrCh != nil {
			select {
			case p.ErrCh <- fmt.Errorf("http server failed: %w", err):
			default:
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Server *http.Server
	Focus  *surface.Broker
	Logger *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	// Release focus long polls so Shutdown does not wait out their timers.
	if cfg.Focus != nil {
		cfg.Focus.StopAll()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
