package surface

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/uxaudit/internal/domain/model"
)

// LatestSource reads the latest-result slot.
type LatestSource interface {
	LatestResult(ctx context.Context) (*model.LatestResult, error)
}

// Poller re-reads the latest result on an interval while a UI surface is open.
type Poller struct {
	source   LatestSource
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller constructs a poller. interval defaults to 2s.
func NewPoller(source LatestSource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{source: source, interval: interval, logger: logger.With("component", "result_poller")}
}

type resultKey struct {
	id        string
	timestamp int64
}

func keyOf(r *model.LatestResult) resultKey {
	if r == nil {
		return resultKey{}
	}
	return resultKey{id: r.ID, timestamp: r.Timestamp}
}

// Run polls immediately and then on every tick, calling onChange with the new
// record whenever its id or timestamp differs from the last one seen. A
// cleared slot is reported as nil. Read errors are logged and polling continues.
// Cancelling ctx stops the poller; no callback runs after Run returns.
func (p *Poller) Run(ctx context.Context, onChange func(*model.LatestResult)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last resultKey
	poll := func() {
		result, err := p.source.LatestResult(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.WarnContext(ctx, "poll latest result failed", "error", err)
			}
			return
		}
		if key := keyOf(result); key != last && ctx.Err() == nil {
			last = key
			onChange(result)
		}
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}
