package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/target/uxaudit/config"
	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/data"
	"github.com/target/uxaudit/internal/observability/metrics"
	"github.com/target/uxaudit/internal/observability/statsd"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Registry core.AuditRegistry   // Required: in-memory audit registry
	Config   config.SweeperConfig // Required: sweep interval and retention
	Logger   *slog.Logger         // Optional: structured logger
	Metrics  statsd.Sink          // Optional: metrics sink (StatsD-compatible)
	Clock    data.TimeProvider    // Optional: defaults to the system clock
}

// SweeperService bounds the audit registry by deleting audits older than the
// retention window, whatever their status.
type SweeperService struct {
	registry core.AuditRegistry
	config   config.SweeperConfig
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Registry == nil {
		return nil, errors.New("AuditRegistry is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("sweeper interval must be positive")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sweeper_service")
		logger.Debug("SweeperService initialized",
			"interval", opts.Config.Interval,
			"retention", opts.Config.Retention,
		)
	}
	var clock data.TimeProvider = data.RealTimeProvider{}
	if opts.Clock != nil {
		clock = opts.Clock
	}

	return &SweeperService{
		registry: opts.Registry,
		config:   opts.Config,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      clock.Now,
	}, nil
}

// Run sweeps on every tick until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), ctx.Err() otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting sweeper service", "interval", s.config.Interval)
	}

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deletes audits created before now minus the retention window and
// returns how many were removed.
func (s *SweeperService) Sweep(ctx context.Context) int {
	start := time.Now()
	cutoff := s.now().Add(-s.config.Retention)

	removed := s.registry.DeleteOlderThan(cutoff)
	remaining := s.registry.Len()

	if removed > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "swept expired audits",
			"count", removed,
			"remaining", remaining,
			"retention", s.config.Retention,
		)
	}
	metrics.EmitSweep(s.metrics, removed, remaining, time.Since(start))
	return removed
}

// waitWithJitter adds a random delay up to 10% of the interval so replicas do not tick in lockstep.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
