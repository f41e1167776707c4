package critic

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/target/uxaudit/internal/core"
	apperrors "github.com/target/uxaudit/internal/errors"
)

// BreakerConfig configures the circuit breaker around a Critic.
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	Interval            time.Duration
	Logger              *slog.Logger
}

// Breaker fails fast while the critique service is unhealthy. It never retries.
type Breaker struct {
	next core.Critic
	cb   *gobreaker.CircuitBreaker
}

var _ core.Critic = (*Breaker)(nil)

// NewBreaker wraps next with a circuit breaker that opens after
// cfg.ConsecutiveFailures failures in a row.
func NewBreaker(next core.Critic, cfg BreakerConfig) *Breaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := max(cfg.ConsecutiveFailures, 1)
	name := cfg.Name
	if name == "" {
		name = "critic"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("critic circuit breaker state change",
				"component", "critic",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Breaker{next: next, cb: cb}
}

// Critique forwards to the wrapped critic unless the breaker is open.
func (b *Breaker) Critique(ctx context.Context, image string) (string, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.next.Critique(ctx, image)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &apperrors.AppError{
				Code:    apperrors.ErrCodeUnavailable,
				Message: "critique service temporarily unavailable",
				Cause:   err,
			}
		}
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}

// State reports the breaker state name (closed, half-open, open).
func (b *Breaker) State() string {
	return b.cb.State().String()
}
