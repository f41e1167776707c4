package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/data"
	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/domain/severity"
	apperrors "github.com/target/uxaudit/internal/errors"
	obserrors "github.com/target/uxaudit/internal/observability/errors"
	"github.com/target/uxaudit/internal/observability/metrics"
	"github.com/target/uxaudit/internal/observability/statsd"
	"github.com/target/uxaudit/internal/util"
)

// User-facing notification text.
const (
	StartedTitle     = "UI/UX Priority Audit Started"
	CompletedTitle   = "Priority Audit Complete!"
	FailedTitle      = "Audit Failed"
	FailedMessage    = "Failed to complete UI/UX audit. Please check your connection and try again."
	StartedAck       = "Priority-based audit started in background"
	untitledPage     = "this page"
	titleLimit       = 50
	buttonViewResult = "View Results"
	buttonDismiss    = "Dismiss"
)

// AuditStores groups the state an AuditService owns.
type AuditStores struct {
	Registry core.AuditRegistry          // Required: in-memory audit registry
	Latest   core.LatestResultRepository // Required: latest-result slot
}

// AuditServiceOptions groups dependencies for AuditService.
type AuditServiceOptions struct {
	Stores   AuditStores
	Relayer  core.Relayer      // Required: audit proxy
	Notifier core.Notifier     // Optional: notification center
	Logger   *slog.Logger      // Optional: structured logger
	Metrics  statsd.Sink       // Optional: metrics sink (StatsD-compatible)
	Clock    data.TimeProvider // Optional: defaults to the system clock
}

// AuditService is the audit lifecycle manager. Start returns immediately and
// each audit makes one relay attempt in its own goroutine.
type AuditService struct {
	registry core.AuditRegistry
	latest   core.LatestResultRepository
	relayer  core.Relayer
	notifier core.Notifier
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time

	inflight sync.WaitGroup
}

// NewAuditService constructs a new AuditService.
func NewAuditService(opts AuditServiceOptions) (*AuditService, error) {
	if opts.Stores.Registry == nil {
		return nil, errors.New("AuditRegistry is required")
	}
	if opts.Stores.Latest == nil {
		return nil, errors.New("LatestResultRepository is required")
	}
	if opts.Relayer == nil {
		return nil, errors.New("Relayer is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var clock data.TimeProvider = data.RealTimeProvider{}
	if opts.Clock != nil {
		clock = opts.Clock
	}

	return &AuditService{
		registry: opts.Stores.Registry,
		latest:   opts.Stores.Latest,
		relayer:  opts.Relayer,
		notifier: opts.Notifier,
		logger:   logger.With("component", "audit_service"),
		metrics:  opts.Metrics,
		now:      clock.Now,
	}, nil
}

// Start registers a pending audit, shows the started notification and relays
// the image in the background. The returned audit is a snapshot at dispatch.
func (s *AuditService) Start(ctx context.Context, req model.StartAuditRequest) (*model.Audit, error) {
	image := strings.TrimSpace(req.ImageData)
	if image == "" {
		return nil, apperrors.ValidationField("imageData", "imageData is required")
	}

	audit := model.Audit{
		ID:        newAuditID(),
		PageURL:   req.PageURL,
		PageTitle: req.PageTitle,
		Status:    model.AuditStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.registry.Create(audit); err != nil {
		return nil, fmt.Errorf("register audit: %w", err)
	}

	s.logger.InfoContext(ctx, "audit started",
		"audit_id", audit.ID,
		"page_url", audit.PageURL,
		"image_bytes", len(image),
	)
	s.show(ctx, model.Notification{
		ID:        model.NotificationID(model.NotificationKindStart, audit.ID),
		Kind:      model.NotificationKindStart,
		AuditID:   audit.ID,
		Title:     StartedTitle,
		Message:   "Auditing: " + displayTitle(audit.PageTitle),
		PageURL:   audit.PageURL,
		PageTitle: audit.PageTitle,
		CreatedAt: audit.CreatedAt,
	})
	metrics.EmitAuditTransition(s.metrics, metrics.AuditMetric{
		Transition: metrics.TransitionStarted,
		Result:     metrics.ResultSuccess,
		Site:       util.SiteLabel(audit.PageURL),
	})

	// The relay outlives the request that started it.
	bg := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.run(bg, audit, image)
	}()

	return &audit, nil
}

func (s *AuditService) run(ctx context.Context, audit model.Audit, image string) {
	// The job already has its terminal notification by the time complete or
	// fail can panic, so the panic is only logged.
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "audit finalization panicked", "audit_id", audit.ID, "panic", r)
		}
	}()

	text, err := s.relay(ctx, image)
	if err != nil {
		s.fail(ctx, audit, err)
		return
	}
	s.complete(ctx, audit, text)
}

// relay turns a relayer panic into an error so the job fails normally.
func (s *AuditService) relay(ctx context.Context, image string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay panic: %v", r)
		}
	}()
	return s.relayer.Relay(ctx, image)
}

func (s *AuditService) complete(ctx context.Context, audit model.Audit, text string) {
	at := s.now()
	site := util.SiteLabel(audit.PageURL)

	if _, err := s.registry.Complete(audit.ID, text, at); err != nil {
		s.logger.WarnContext(ctx, "audit registry transition failed", "audit_id", audit.ID, "error", err)
	}

	s.persist(ctx, model.LatestResult{
		Result:    text,
		Timestamp: at.UnixMilli(),
		ID:        audit.ID,
		PageURL:   audit.PageURL,
		PageTitle: audit.PageTitle,
	}, site)

	counts := severity.Count(text)
	byTag := make(map[string]int, len(counts.ByTag))
	for tag, n := range counts.ByTag {
		byTag[string(tag)] = n
	}
	metrics.EmitSeverityCounts(s.metrics, byTag)

	s.show(ctx, model.Notification{
		ID:        model.NotificationID(model.NotificationKindComplete, audit.ID),
		Kind:      model.NotificationKindComplete,
		AuditID:   audit.ID,
		Title:     CompletedTitle,
		Message:   severity.Headline(counts),
		Buttons:   []string{buttonViewResult, buttonDismiss},
		PageURL:   audit.PageURL,
		PageTitle: audit.PageTitle,
		CreatedAt: at,
	})
	s.clearStarted(audit.ID)

	s.logger.InfoContext(ctx, "audit completed",
		"audit_id", audit.ID,
		"issues", counts.Total,
		"duration", util.FormatDuration(at.Sub(audit.CreatedAt)),
	)
	metrics.EmitAuditTransition(s.metrics, metrics.AuditMetric{
		Transition: metrics.TransitionSucceeded,
		Result:     metrics.ResultSuccess,
		Site:       site,
		Duration:   at.Sub(audit.CreatedAt),
	})
}

// persist writes the latest-result slot. A failure here does not fail the audit.
func (s *AuditService) persist(ctx context.Context, result model.LatestResult, site string) {
	err := s.latest.Save(ctx, result)
	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
		s.logger.ErrorContext(ctx, "persist latest result failed", "audit_id", result.ID, "error", err)
	}
	metrics.EmitAuditTransition(s.metrics, metrics.AuditMetric{
		Transition: metrics.TransitionPersisted,
		Result:     outcome,
		Site:       site,
		Err:        err,
	})
}

func (s *AuditService) fail(ctx context.Context, audit model.Audit, cause error) {
	at := s.now()
	if _, err := s.registry.Fail(audit.ID, cause.Error(), at); err != nil {
		s.logger.WarnContext(ctx, "audit registry transition failed", "audit_id", audit.ID, "error", err)
	}

	class := obserrors.Classify(cause)
	s.logger.ErrorContext(ctx, "audit failed",
		"audit_id", audit.ID,
		"page_url", audit.PageURL,
		"error", cause,
		"error_class", class,
	)

	s.show(ctx, model.Notification{
		ID:         model.NotificationID(model.NotificationKindError, audit.ID),
		Kind:       model.NotificationKindError,
		AuditID:    audit.ID,
		Title:      FailedTitle,
		Message:    FailedMessage,
		PageURL:    audit.PageURL,
		PageTitle:  audit.PageTitle,
		CreatedAt:  at,
		Error:      cause.Error(),
		ErrorClass: class,
	})
	s.clearStarted(audit.ID)

	metrics.EmitAuditTransition(s.metrics, metrics.AuditMetric{
		Transition: metrics.TransitionFailed,
		Result:     metrics.ResultError,
		Site:       util.SiteLabel(audit.PageURL),
		Duration:   at.Sub(audit.CreatedAt),
		Err:        cause,
	})
}

func (s *AuditService) show(ctx context.Context, n model.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Show(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "show notification failed", "notification_id", n.ID, "error", err)
	}
}

func (s *AuditService) clearStarted(auditID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Clear(model.NotificationID(model.NotificationKindStart, auditID))
}

// Latest returns the persisted latest result, or nil when the slot is empty.
func (s *AuditService) Latest(ctx context.Context) (*model.LatestResult, error) {
	result, err := s.latest.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest result: %w", err)
	}
	return result, nil
}

// Clear empties the latest-result slot. Clearing an empty slot succeeds.
func (s *AuditService) Clear(ctx context.Context) error {
	if err := s.latest.Clear(ctx); err != nil {
		return fmt.Errorf("clear latest result: %w", err)
	}
	s.logger.DebugContext(ctx, "latest result cleared")
	return nil
}

// Get returns one audit while it is still in the registry.
func (s *AuditService) Get(_ context.Context, id string) (*model.Audit, error) {
	audit, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, model.ErrAuditNotFound) {
			return nil, apperrors.NotFoundf("audit %s not found", id)
		}
		return nil, fmt.Errorf("get audit: %w", err)
	}
	return &audit, nil
}

// List returns registry contents, newest first.
func (s *AuditService) List(context.Context) []model.Audit {
	return s.registry.List()
}

// Wait blocks until every in-flight relay has finished.
func (s *AuditService) Wait() {
	s.inflight.Wait()
}

// WaitContext is Wait bounded by ctx. It reports whether all relays finished.
func (s *AuditService) WaitContext(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitledPage
	}
	return util.TruncateTitle(title, titleLimit)
}

func newAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
