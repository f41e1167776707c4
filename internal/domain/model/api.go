package model

import "time"

// AuditListResponse is the GET /api/audits body.
type AuditListResponse struct {
	Audits []Audit `json:"audits"`
	Count  int     `json:"count"`
}

// NotificationListResponse is the GET /api/notifications body.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
}

// ClickResponse acknowledges a notification click or button press.
// Focused is true when the UI surface was asked to come forward.
type ClickResponse struct {
	Success bool `json:"success"`
	Focused bool `json:"focused"`
}

// FocusResponse is returned by the focus long poll when a request is pending.
type FocusResponse struct {
	Focus       bool      `json:"focus"`
	AuditID     string    `json:"auditId,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}
