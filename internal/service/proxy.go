package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/target/uxaudit/internal/core"
	apperrors "github.com/target/uxaudit/internal/errors"
	"github.com/target/uxaudit/internal/observability/metrics"
	"github.com/target/uxaudit/internal/observability/statsd"
)

const dataURLPrefix = "data:image/"

// ProxyConfig bounds and post-processes relayed critiques.
type ProxyConfig struct {
	MaxImageBytes int64
	NormalizeText bool
}

// ProxyServiceOptions groups dependencies for ProxyService.
type ProxyServiceOptions struct {
	Critic  core.Critic  // Required: vision critique client
	Config  ProxyConfig  // Required: relay limits
	Logger  *slog.Logger // Optional: structured logger
	Metrics statsd.Sink  // Optional: metrics sink (StatsD-compatible)
}

// ProxyService is the in-process audit proxy. Each Relay is independent and
// makes exactly one critique call.
type ProxyService struct {
	critic  core.Critic
	config  ProxyConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

var _ core.Relayer = (*ProxyService)(nil)

// NewProxyService constructs a new ProxyService.
func NewProxyService(opts ProxyServiceOptions) (*ProxyService, error) {
	if opts.Critic == nil {
		return nil, errors.New("critic is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyService{
		critic:  opts.Critic,
		config:  opts.Config,
		logger:  logger.With("component", "audit_proxy"),
		metrics: opts.Metrics,
	}, nil
}

// Relay validates image, asks the critic for a critique and returns the text.
func (s *ProxyService) Relay(ctx context.Context, image string) (string, error) {
	start := time.Now()
	text, err := s.relay(ctx, image)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitProxyRelay(s.metrics, metrics.ProxyMetric{
		Result:    result,
		Duration:  time.Since(start),
		Err:       err,
		SizeBytes: len(image),
	})
	return text, err
}

func (s *ProxyService) relay(ctx context.Context, image string) (string, error) {
	if err := s.ValidateImage(image); err != nil {
		return "", err
	}

	text, err := s.critic.Critique(ctx, image)
	if err != nil {
		s.logger.ErrorContext(ctx, "critique request failed", "error", err, "image_bytes", len(image))
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", apperrors.Upstream(err, "critique service request failed")
	}

	if s.config.NormalizeText {
		text = NormalizeCritique(text)
	}
	return text, nil
}

// ValidateImage checks that image is a non-empty base64 image data URL within the size ceiling.
func (s *ProxyService) ValidateImage(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return apperrors.ValidationField("image", "image is required")
	}
	if s.config.MaxImageBytes > 0 && int64(len(image)) > s.config.MaxImageBytes {
		return apperrors.PayloadTooLargef("image exceeds %d bytes", s.config.MaxImageBytes)
	}
	header, _, ok := strings.Cut(image, ",")
	if !ok || !strings.HasPrefix(header, dataURLPrefix) || !strings.HasSuffix(header, ";base64") {
		return apperrors.ValidationField("image", "image must be a base64 data:image/... URL")
	}
	return nil
}

var typography = runes.Map(func(r rune) rune {
	switch r {
	case '‘', '’', '‚', '′':
		return '\''
	case '“', '”', '„', '″':
		return '"'
	case '‐', '‑', '‒', '–', '—', '―', '−':
		return '-'
	case '\u00A0', '\u202F':
		return ' '
	default:
		return r
	}
})

var ellipsis = strings.NewReplacer("\u2026", "...")

// NormalizeCritique folds typographic quotes, dashes, ellipses and no-break
// spaces to ASCII. Every other rune is left as the model wrote it.
func NormalizeCritique(text string) string {
	out, _, err := transform.String(typography, text)
	if err != nil {
		return text
	}
	return ellipsis.Replace(out)
}
