// Package notify defines the event mirrored to external notification sinks
// (Slack, PagerDuty) whenever the audit lifecycle shows a user notification.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Kind mirrors the notification kind shown to the user.
type Kind string

const (
	KindStarted   Kind = "start"
	KindCompleted Kind = "complete"
	KindFailed    Kind = "error"
)

// AuditEvent is the canonical payload for audit notifications.
type AuditEvent struct {
	NotificationID string
	AuditID        string
	Kind           Kind
	Title          string
	Message        string
	PageURL        string
	PageTitle      string
	Site           string
	Error          string
	ErrorClass     string
	Severity       string
	OccurredAt     time.Time
	Metadata       map[string]string
}

// Sink describes a destination capable of consuming audit notifications.
type Sink interface {
	SendAuditEvent(ctx context.Context, event AuditEvent) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, event AuditEvent) error

// SendAuditEvent implements the Sink interface.
func (f SinkFunc) SendAuditEvent(ctx context.Context, event AuditEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}
