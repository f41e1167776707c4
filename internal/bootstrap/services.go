package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/uxaudit/config"
	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/data"
	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/domain/surface"
	"github.com/target/uxaudit/internal/observability/notify/pagerduty"
	"github.com/target/uxaudit/internal/observability/notify/slack"
	"github.com/target/uxaudit/internal/observability/statsd"
	"github.com/target/uxaudit/internal/service"
	"github.com/target/uxaudit/internal/service/notifycenter"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Audits        *service.AuditService
	Proxy         *service.ProxyService // nil when audits go to a remote proxy
	Notifications *notifycenter.Service
	Focus         *surface.Broker
	Registry      *data.AuditRegistry
	Latest        core.LatestResultRepository
	Clock         data.TimeProvider
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink    *statsd.Client
	MetricsConfig  config.ObservabilityMetricsConfig
	Sinks          []notifycenter.SinkRegistration
	NotifierConfig config.ObservabilityNotificationsConfig
}

// Metrics returns the sink as an interface, nil when metrics are disabled.
//
//nolint:ireturn // callers take the statsd.Sink port.
func (o ObservabilityContainer) Metrics() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Latest core.LatestResultRepository
	Logger *slog.Logger

	// Relayer overrides the relay chain built from config. Tests use it.
	Relayer core.Relayer
	// Clock defaults to the system clock.
	Clock data.TimeProvider
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "uxaudit",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:    metricsSink,
		MetricsConfig:  cfg.Metrics,
		Sinks:          buildNotificationSinks(obsLogger, cfg.Notifications),
		NotifierConfig: cfg.Notifications,
	}
}

// buildNotificationSinks returns the external mirrors for the notification center.
// PagerDuty only ever sees failures.
func buildNotificationSinks(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) []notifycenter.SinkRegistration {
	if !cfg.Enabled {
		return nil
	}

	sinks := make([]notifycenter.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
			ReportURL:  cfg.Slack.ReportURL,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			reg := notifycenter.SinkRegistration{Name: "slack", Sink: client}
			if cfg.Slack.FailuresOnly {
				reg.Kinds = []model.NotificationKind{model.NotificationKindError}
			}
			sinks = append(sinks, reg)
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, notifycenter.SinkRegistration{
				Name:  "pagerduty",
				Sink:  client,
				Kinds: []model.NotificationKind{model.NotificationKindError},
			})
		}
	}

	return sinks
}

// NewServices wires the audit lifecycle, the relay chain and the UI surface plumbing.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.Latest == nil {
		return ServiceContainer{}, errors.New("latest result repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	var clock data.TimeProvider = data.RealTimeProvider{}
	if deps.Clock != nil {
		clock = deps.Clock
	}

	observability := buildObservability(logger, cfg.Observability)

	bundle := RelayBundle{Relayer: deps.Relayer}
	if bundle.Relayer == nil {
		var err error
		bundle, err = BuildRelayer(RelayerConfig{
			Audit:   cfg.Audit,
			Critic:  cfg.Critic,
			Logger:  logger,
			Metrics: observability.Metrics(),
		})
		if err != nil {
			return ServiceContainer{}, err
		}
	}

	focus := surface.NewBroker()
	center := notifycenter.NewService(notifycenter.Options{
		Logger:          logger,
		Sinks:           observability.Sinks,
		Focus:           focus,
		DeliveryTimeout: cfg.Observability.Notifications.Timeout * time.Duration(cfg.Observability.Notifications.RetryLimit+1),
		Now:             clock.Now,
	})

	registry := data.NewAuditRegistry()
	audits, err := service.NewAuditService(service.AuditServiceOptions{
		Stores:   service.AuditStores{Registry: registry, Latest: deps.Latest},
		Relayer:  bundle.Relayer,
		Notifier: center,
		Logger:   logger,
		Metrics:  observability.Metrics(),
		Clock:    clock,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create audit service: %w", err)
	}

	return ServiceContainer{
		Audits:        audits,
		Proxy:         bundle.Proxy,
		Notifications: center,
		Focus:         focus,
		Registry:      registry,
		Latest:        deps.Latest,
		Clock:         clock,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}

	return handles
}

func newSweeperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeSweeper,
		name: "sweeper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var sweeperCfg config.SweeperConfig
			if deps.cfg.Config != nil {
				sweeperCfg = deps.cfg.Config.Sweeper
			}
			return RunSweeper(ctx, SweeperConfig{
				Registry: deps.cfg.Services.Registry,
				Logger:   deps.logger,
				Config:   sweeperCfg,
				Metrics:  deps.cfg.Services.Observability.Metrics(),
				Clock:    deps.cfg.Services.Clock,
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newSweeperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		quit:        quit,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		services:    cfg.Services,
		drainWait:   cfg.Config.ShutdownTimeout(),
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	quit        <-chan os.Signal
	errCh       <-chan error
	httpServer  *http.Server
	services    ServiceContainer
	drainWait   time.Duration
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops intake first, then lets in-flight audits settle so their
// results are persisted and their notifications delivered.
func gracefulStop(cfg shutdownConfig) error {
	var httpErr error
	if cfg.httpServer != nil {
		httpErr = ShutdownHTTPServer(ShutdownConfig{
			Server: cfg.httpServer,
			Focus:  cfg.services.Focus,
			Logger: cfg.logger,
		})
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	drainAudits(cfg.services, cfg.drainWait, cfg.logger)

	return httpErr
}

func drainAudits(services ServiceContainer, wait time.Duration, logger *slog.Logger) {
	if services.Audits != nil {
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		if !services.Audits.WaitContext(ctx) {
			logger.Warn("in-flight audits did not finish before shutdown", "wait", wait)
		}
	}
	if services.Notifications != nil {
		services.Notifications.Wait()
	}
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
