// Package sweeper provides adapters for running the audit registry sweep.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/uxaudit/config"
	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/data"
	"github.com/target/uxaudit/internal/observability/statsd"
	"github.com/target/uxaudit/internal/service"
)

// Runner constructs the sweeper service and runs its loop.
type Runner struct {
	sweeper *service.SweeperService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Registry core.AuditRegistry
	Config   config.SweeperConfig
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Clock    data.TimeProvider
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Registry == nil {
		return nil, errors.New("audit registry is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	svc, err := service.NewSweeperService(service.SweeperServiceOptions{
		Registry: opts.Registry,
		Config:   opts.Config,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
		Clock:    opts.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("wire sweeper service: %w", err)
	}

	return &Runner{sweeper: svc, logger: opts.Logger}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper runner")
	return r.sweeper.Run(ctx)
}
