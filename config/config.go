package config

import "time"

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - audit.go: Audit proxy, critic client and poller configuration
//   - database.go: Redis and latest-result store configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode and sweeper configuration
//   - observability.go: Metrics and notification sinks
type AppConfig struct {
	// IsDev relaxes a few production guardrails (text logs, memory store allowed without warning).
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Redis RedisConfig `envPrefix:"REDIS_"`
	Store StoreConfig

	HTTP HTTPConfig

	// Services is a comma-delimited list of enabled services.
	Services string `env:"SERVICES" envDefault:"http,sweeper"`

	Audit   AuditConfig
	Critic  CriticConfig `envPrefix:"CRITIC_"`
	Sweeper SweeperConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Store.Sanitize()
	c.Audit.Sanitize()
	c.Critic.Sanitize()
	c.Sweeper.Sanitize()
	c.Observability.Sanitize()
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsSweeperEnabled returns true if the registry sweeper service is enabled.
func (c *AppConfig) IsSweeperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeSweeper]
}

// ShutdownTimeout bounds how long graceful shutdown waits for the HTTP server
// and for in-flight audits to settle.
func (c *AppConfig) ShutdownTimeout() time.Duration {
	return c.Audit.ShutdownWait
}
