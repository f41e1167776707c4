package model

import (
	"strings"
	"time"
)

// NotificationKind identifies which lifecycle event produced a notification.
type NotificationKind string

const (
	NotificationKindStart    NotificationKind = "start"
	NotificationKindComplete NotificationKind = "complete"
	NotificationKindError    NotificationKind = "error"
)

const notificationIDPrefix = "audit-"

// Notification is a user-facing message keyed by audit id and kind.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	AuditID   string           `json:"auditId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Buttons   []string         `json:"buttons,omitempty"`
	PageURL   string           `json:"pageUrl,omitempty"`
	PageTitle string           `json:"pageTitle,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`

	// Error detail is forwarded to operator sinks only, never to the user.
	Error      string `json:"-"`
	ErrorClass string `json:"-"`
}

// NotificationID builds the id for a kind/audit pair, e.g. audit-complete-<id>.
func NotificationID(kind NotificationKind, auditID string) string {
	return notificationIDPrefix + string(kind) + "-" + auditID
}

// ParseNotificationID splits an id produced by NotificationID.
func ParseNotificationID(id string) (NotificationKind, string, bool) {
	rest, ok := strings.CutPrefix(id, notificationIDPrefix)
	if !ok {
		return "", "", false
	}
	for _, kind := range []NotificationKind{NotificationKindStart, NotificationKindComplete, NotificationKindError} {
		if auditID, found := strings.CutPrefix(rest, string(kind)+"-"); found && auditID != "" {
			return kind, auditID, true
		}
	}
	return "", "", false
}

// IsCompletion reports whether id names a completion notification.
func IsCompletion(id string) bool {
	kind, _, ok := ParseNotificationID(id)
	return ok && kind == NotificationKindComplete
}
