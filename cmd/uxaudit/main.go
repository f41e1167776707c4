package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/uxaudit/config"
	"github.com/target/uxaudit/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		bootstrap.InitLogger(nil).ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logger := bootstrap.InitLogger(&cfg)
	if err := run(ctx, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	logStartupInfo(ctx, logger, cfg)

	if err := bootstrap.ValidateServiceConfig(cfg); err != nil {
		return err
	}

	store, err := bootstrap.OpenStore(bootstrap.DatabaseConfig{
		RedisConfig: cfg.Redis,
		StoreConfig: cfg.Store,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config: cfg,
		Latest: store.Repo,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	if sink := services.Observability.MetricsSink; sink != nil {
		defer func() {
			if cerr := sink.Close(); cerr != nil {
				logger.WarnContext(ctx, "close statsd failed", "error", cerr)
			}
		}()
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	relay := "in-process"
	if cfg.Audit.UsesRemoteProxy() {
		relay = cfg.Audit.ProxyURL
	}
	logger.InfoContext(ctx, "starting uxaudit service",
		"addr", cfg.HTTP.Addr,
		"store", cfg.Store.Backend,
		"relay", relay,
		"critic_model", cfg.Critic.Model,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}
