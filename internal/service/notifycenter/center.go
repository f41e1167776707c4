// Package notifycenter tracks the notifications visible to the user and mirrors
// them to external sinks.
package notifycenter

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/domain/model"
	apperrors "github.com/target/uxaudit/internal/errors"
	"github.com/target/uxaudit/internal/observability/notify"
	"github.com/target/uxaudit/internal/util"
)

// Completion notification buttons, by index.
const (
	ButtonViewResults = 0
	ButtonDismiss     = 1
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
// Kinds limits which notification kinds reach the sink; empty means all.
type SinkRegistration struct {
	Name  string
	Sink  notify.Sink
	Kinds []model.NotificationKind
}

func (r SinkRegistration) accepts(kind model.NotificationKind) bool {
	return len(r.Kinds) == 0 || slices.Contains(r.Kinds, kind)
}

// Options configures the notification center.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// Focus receives "bring the UI surface forward" requests from view actions.
	Focus core.FocusRequester
	// DeliveryTimeout bounds one fan-out to all sinks.
	DeliveryTimeout time.Duration
	Now             func() time.Time
}

// Service holds the visible notification set keyed by id.
type Service struct {
	logger  *slog.Logger
	sinks   []SinkRegistration
	focus   core.FocusRequester
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	visible map[string]model.Notification

	deliveries sync.WaitGroup
}

// NewService constructs a notification center.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "notification_center")

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	timeout := opts.DeliveryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logger:  logger,
		sinks:   sinks,
		focus:   opts.Focus,
		timeout: timeout,
		now:     now,
		visible: make(map[string]model.Notification),
	}
}

// Show makes n visible, replacing any notification with the same id, and
// mirrors it to sinks in the background. Sink failures are only logged.
func (s *Service) Show(ctx context.Context, n model.Notification) error {
	if strings.TrimSpace(n.ID) == "" {
		return apperrors.Validation("notification id is required")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.visible[n.ID] = n
	s.mu.Unlock()

	s.deliver(ctx, n)
	return nil
}

// Clear removes a visible notification. Returns false if it was not visible.
func (s *Service) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visible[id]; !ok {
		return false
	}
	delete(s.visible, id)
	return true
}

// Get returns a visible notification.
func (s *Service) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.visible[id]
	return n, ok
}

// List returns visible notifications, oldest first.
func (s *Service) List() []model.Notification {
	s.mu.Lock()
	out := make([]model.Notification, 0, len(s.visible))
	for _, n := range s.visible {
		out = append(out, n)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b model.Notification) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Click handles a click on the notification body. Completion notifications
// behave like "View Results"; other kinds are left untouched.
// It reports whether a focus request was made.
func (s *Service) Click(ctx context.Context, id string) (bool, error) {
	n, ok := s.Get(id)
	if !ok {
		return false, apperrors.NotFoundf("notification %s not found", id)
	}
	if n.Kind != model.NotificationKindComplete {
		return false, nil
	}
	s.viewResults(ctx, n)
	return true, nil
}

// ButtonClick handles an action button on a completion notification. Both
// buttons clear the notification; View Results also requests focus.
func (s *Service) ButtonClick(ctx context.Context, id string, index int) (bool, error) {
	n, ok := s.Get(id)
	if !ok {
		return false, apperrors.NotFoundf("notification %s not found", id)
	}
	if n.Kind != model.NotificationKindComplete {
		return false, apperrors.Validationf("notification %s has no actions", id)
	}

	switch index {
	case ButtonViewResults:
		s.viewResults(ctx, n)
		return true, nil
	case ButtonDismiss:
		s.Clear(id)
		return false, nil
	default:
		return false, apperrors.ValidationField("index", "button index must be 0 (View Results) or 1 (Dismiss)")
	}
}

func (s *Service) viewResults(ctx context.Context, n model.Notification) {
	if s.focus != nil {
		s.focus.Request(n.AuditID)
	}
	s.Clear(n.ID)
	s.logger.DebugContext(ctx, "view results requested", "notification_id", n.ID, "audit_id", n.AuditID)
}

func (s *Service) deliver(ctx context.Context, n model.Notification) {
	var targets []SinkRegistration
	for _, entry := range s.sinks {
		if entry.accepts(n.Kind) {
			targets = append(targets, entry)
		}
	}
	if len(targets) == 0 {
		return
	}

	event := toEvent(n)
	base := context.WithoutCancel(ctx)

	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()

		dctx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()

		var g errgroup.Group
		for _, entry := range targets {
			g.Go(func() error {
				if err := entry.Sink.SendAuditEvent(dctx, event); err != nil {
					s.logger.Error("notification delivery error",
						"sink", entry.Name,
						"notification_id", event.NotificationID,
						"audit_id", event.AuditID,
						"error", err,
					)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until background sink deliveries finish.
func (s *Service) Wait() {
	s.deliveries.Wait()
}

// Enabled reports whether the center has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}

func toEvent(n model.Notification) notify.AuditEvent {
	event := notify.AuditEvent{
		NotificationID: n.ID,
		AuditID:        n.AuditID,
		Title:          n.Title,
		Message:        n.Message,
		PageURL:        n.PageURL,
		PageTitle:      n.PageTitle,
		Site:           util.SiteLabel(n.PageURL),
		Error:          n.Error,
		ErrorClass:     n.ErrorClass,
		OccurredAt:     n.CreatedAt,
	}
	switch n.Kind {
	case model.NotificationKindStart:
		event.Kind = notify.KindStarted
		event.Severity = notify.SeverityInfo
	case model.NotificationKindComplete:
		event.Kind = notify.KindCompleted
		event.Severity = notify.SeverityInfo
	case model.NotificationKindError:
		event.Kind = notify.KindFailed
		event.Severity = notify.SeverityCritical
	}
	return event
}

var _ core.Notifier = (*Service)(nil)
