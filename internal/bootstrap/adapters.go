package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/uxaudit/config"
	"github.com/target/uxaudit/internal/adapters/auditproxy"
	"github.com/target/uxaudit/internal/adapters/critic"
	"github.com/target/uxaudit/internal/adapters/sweeper"
	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/data"
	"github.com/target/uxaudit/internal/observability/statsd"
	"github.com/target/uxaudit/internal/service"
)

// RelayerConfig contains configuration for the audit relay chain.
type RelayerConfig struct {
	Audit   config.AuditConfig
	Critic  config.CriticConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RelayBundle holds the relayer used by the lifecycle manager and, when this
// process relays in-process, the proxy service that backs POST /audit.
type RelayBundle struct {
	Relayer core.Relayer
	Proxy   *service.ProxyService
}

// BuildRelayer wires either a remote audit proxy client or the in-process
// proxy chain (critic client, optional breaker, proxy service).
func BuildRelayer(cfg RelayerConfig) (RelayBundle, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Audit.UsesRemoteProxy() {
		client, err := auditproxy.NewClient(cfg.Audit.ProxyURL, cfg.Audit.ProxyTimeout, nil)
		if err != nil {
			return RelayBundle{}, fmt.Errorf("create audit proxy client: %w", err)
		}
		logger.Info("relaying audits to remote proxy", "url", cfg.Audit.ProxyURL)
		return RelayBundle{Relayer: client}, nil
	}

	c, err := buildCritic(cfg.Critic, logger)
	if err != nil {
		return RelayBundle{}, err
	}

	proxy, err := service.NewProxyService(service.ProxyServiceOptions{
		Critic: c,
		Config: service.ProxyConfig{
			MaxImageBytes: cfg.Audit.MaxImageBytes,
			NormalizeText: cfg.Critic.NormalizeText,
		},
		Logger:  logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return RelayBundle{}, fmt.Errorf("create proxy service: %w", err)
	}
	return RelayBundle{Relayer: proxy, Proxy: proxy}, nil
}

//nolint:ireturn // the breaker and the bare client share the Critic port.
func buildCritic(cfg config.CriticConfig, logger *slog.Logger) (core.Critic, error) {
	client, err := critic.NewClient(critic.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		MaxTokens:  cfg.MaxTokens,
		Prompt:     cfg.Prompt,
		ResultPath: cfg.ResultPath,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create critic client: %w", err)
	}
	if !cfg.Breaker.Enabled {
		return client, nil
	}
	return critic.NewBreaker(client, critic.BreakerConfig{
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
		Interval:            cfg.Breaker.Interval,
		Logger:              logger,
	}), nil
}

// SweeperConfig contains configuration for the registry sweeper.
type SweeperConfig struct {
	Registry core.AuditRegistry
	Logger   *slog.Logger
	Config   config.SweeperConfig
	Metrics  statsd.Sink
	Clock    data.TimeProvider
}

// RunSweeper starts the sweeper service.
func RunSweeper(ctx context.Context, cfg SweeperConfig) error {
	runner, err := sweeper.NewRunner(sweeper.RunnerOptions{
		Registry: cfg.Registry,
		Config:   cfg.Config,
		Logger:   cfg.Logger,
		Metrics:  cfg.Metrics,
		Clock:    cfg.Clock,
	})
	if err != nil {
		return fmt.Errorf("create sweeper runner: %w", err)
	}

	return runner.Run(ctx)
}
