package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":5000"`

	// ReadTimeout bounds reading a full request, including a large screenshot body.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"60s"`

	// WriteTimeout must outlive the critic call because POST /audit is synchronous.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"180s"`

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// CORSOrigins lists origins allowed to call the API from a browser, e.g.
	// "chrome-extension://<id>". "*" allows any origin; empty disables CORS.
	CORSOrigins []string `env:"HTTP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":5000"
	}
	if h.ReadTimeout < time.Second {
		h.ReadTimeout = time.Second
	}
	if h.WriteTimeout < time.Second {
		h.WriteTimeout = time.Second
	}
	if h.IdleTimeout < time.Second {
		h.IdleTimeout = time.Second
	}

	origins := h.CORSOrigins[:0]
	for _, o := range h.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	h.CORSOrigins = origins
}
