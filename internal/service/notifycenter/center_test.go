package notifycenter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/uxaudit/internal/domain/model"
	apperrors "github.com/target/uxaudit/internal/errors"
	"github.com/target/uxaudit/internal/observability/notify"
)

type focusRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (f *focusRecorder) Request(auditID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, auditID)
}

func (f *focusRecorder) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

type eventCapture struct {
	mu     sync.Mutex
	events []notify.AuditEvent
}

func (c *eventCapture) sink() notify.Sink {
	return notify.SinkFunc(func(_ context.Context, e notify.AuditEvent) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, e)
		return nil
	})
}

func (c *eventCapture) all() []notify.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.AuditEvent(nil), c.events...)
}

func completion(auditID string) model.Notification {
	return model.Notification{
		ID:      model.NotificationID(model.NotificationKindComplete, auditID),
		Kind:    model.NotificationKindComplete,
		AuditID: auditID,
		Title:   "Priority Audit Complete!",
		Buttons: []string{"View Results", "Dismiss"},
	}
}

func TestShowAndClear(t *testing.T) {
	svc := NewService(Options{})
	ctx := context.Background()

	require.NoError(t, svc.Show(ctx, completion("a1")))
	_, ok := svc.Get("audit-complete-a1")
	assert.True(t, ok)
	assert.Len(t, svc.List(), 1)

	assert.True(t, svc.Clear("audit-complete-a1"))
	assert.False(t, svc.Clear("audit-complete-a1"))
	assert.Empty(t, svc.List())

	err := svc.Show(ctx, model.Notification{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestListOrderedByCreation(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(Options{})
	ctx := context.Background()

	second := completion("b")
	second.CreatedAt = base.Add(time.Second)
	first := completion("a")
	first.CreatedAt = base

	require.NoError(t, svc.Show(ctx, second))
	require.NoError(t, svc.Show(ctx, first))

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].AuditID)
	assert.Equal(t, "b", list[1].AuditID)
}

func TestClickCompletionRequestsFocusAndClears(t *testing.T) {
	focus := &focusRecorder{}
	svc := NewService(Options{Focus: focus})
	ctx := context.Background()
	require.NoError(t, svc.Show(ctx, completion("a1")))

	focused, err := svc.Click(ctx, "audit-complete-a1")
	require.NoError(t, err)
	assert.True(t, focused)
	assert.Equal(t, []string{"a1"}, focus.requests())
	_, ok := svc.Get("audit-complete-a1")
	assert.False(t, ok)
}

func TestClickNonCompletionIsIgnored(t *testing.T) {
	focus := &focusRecorder{}
	svc := NewService(Options{Focus: focus})
	ctx := context.Background()
	start := model.Notification{
		ID:      model.NotificationID(model.NotificationKindStart, "a1"),
		Kind:    model.NotificationKindStart,
		AuditID: "a1",
	}
	require.NoError(t, svc.Show(ctx, start))

	focused, err := svc.Click(ctx, start.ID)
	require.NoError(t, err)
	assert.False(t, focused)
	assert.Empty(t, focus.requests())
	_, ok := svc.Get(start.ID)
	assert.True(t, ok, "start notification stays visible")

	_, err = svc.Click(ctx, "audit-complete-missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestButtonClick(t *testing.T) {
	ctx := context.Background()

	t.Run("view results", func(t *testing.T) {
		focus := &focusRecorder{}
		svc := NewService(Options{Focus: focus})
		require.NoError(t, svc.Show(ctx, completion("a1")))

		focused, err := svc.ButtonClick(ctx, "audit-complete-a1", ButtonViewResults)
		require.NoError(t, err)
		assert.True(t, focused)
		assert.Equal(t, []string{"a1"}, focus.requests())
		assert.Empty(t, svc.List())
	})

	t.Run("dismiss", func(t *testing.T) {
		focus := &focusRecorder{}
		svc := NewService(Options{Focus: focus})
		require.NoError(t, svc.Show(ctx, completion("a1")))

		focused, err := svc.ButtonClick(ctx, "audit-complete-a1", ButtonDismiss)
		require.NoError(t, err)
		assert.False(t, focused)
		assert.Empty(t, focus.requests())
		assert.Empty(t, svc.List())
	})

	t.Run("invalid index", func(t *testing.T) {
		svc := NewService(Options{})
		require.NoError(t, svc.Show(ctx, completion("a1")))

		_, err := svc.ButtonClick(ctx, "audit-complete-a1", 2)
		assert.True(t, apperrors.IsValidation(err))
		assert.Len(t, svc.List(), 1, "invalid click leaves notification visible")
	})

	t.Run("no actions on error notification", func(t *testing.T) {
		svc := NewService(Options{})
		n := model.Notification{ID: "audit-error-a1", Kind: model.NotificationKindError, AuditID: "a1"}
		require.NoError(t, svc.Show(ctx, n))

		_, err := svc.ButtonClick(ctx, n.ID, 0)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestShowMirrorsToSinks(t *testing.T) {
	all := &eventCapture{}
	failuresOnly := &eventCapture{}
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "all", Sink: all.sink()},
			{Name: "failures", Sink: failuresOnly.sink(), Kinds: []model.NotificationKind{model.NotificationKindError}},
			{Name: "broken", Sink: notify.SinkFunc(func(context.Context, notify.AuditEvent) error {
				return errors.New("boom")
			})},
			{Name: "nil"},
		},
	})
	require.True(t, svc.Enabled())
	ctx := context.Background()

	require.NoError(t, svc.Show(ctx, completion("a1")))
	require.NoError(t, svc.Show(ctx, model.Notification{
		ID:         "audit-error-a2",
		Kind:       model.NotificationKindError,
		AuditID:    "a2",
		PageURL:    "https://www.example.com/x",
		Error:      "upstream 502",
		ErrorClass: "upstream",
	}))
	svc.Wait()

	assert.Len(t, all.all(), 2)
	failures := failuresOnly.all()
	require.Len(t, failures, 1)
	assert.Equal(t, notify.KindFailed, failures[0].Kind)
	assert.Equal(t, notify.SeverityCritical, failures[0].Severity)
	assert.Equal(t, "example.com", failures[0].Site)
	assert.Equal(t, "upstream 502", failures[0].Error)
}

func TestShowDeliveryOutlivesCallerContext(t *testing.T) {
	capture := &eventCapture{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "c", Sink: notify.SinkFunc(
		func(ctx context.Context, e notify.AuditEvent) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return capture.sink().SendAuditEvent(ctx, e)
		})}}})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Show(ctx, completion("a1")))
	cancel()
	svc.Wait()

	assert.Len(t, capture.all(), 1)
}

func TestDisabled(t *testing.T) {
	svc := NewService(Options{})
	assert.False(t, svc.Enabled())
}
