// Package model defines the core data types shared by the audit lifecycle, proxy and presentation layers.
package model

import (
	"errors"
	"time"
)

// AuditStatus represents the lifecycle state of an audit.
type AuditStatus string

const (
	// AuditStatusPending indicates the critique call is still in flight.
	AuditStatusPending AuditStatus = "pending"
	// AuditStatusSucceeded indicates the critique text was returned.
	AuditStatusSucceeded AuditStatus = "succeeded"
	// AuditStatusFailed indicates the relay failed; Error holds the detail.
	AuditStatusFailed AuditStatus = "failed"
)

var (
	// ErrAuditNotFound is returned when an audit id is not in the registry.
	ErrAuditNotFound = errors.New("audit not found")
	// ErrAuditNotPending is returned when a terminal audit is transitioned again.
	ErrAuditNotPending = errors.New("audit is not pending")
)

// Valid returns true if the AuditStatus is valid.
func (s AuditStatus) Valid() bool {
	return s == AuditStatusPending || s == AuditStatusSucceeded || s == AuditStatusFailed
}

// Terminal reports whether no further transitions are allowed.
func (s AuditStatus) Terminal() bool {
	return s == AuditStatusSucceeded || s == AuditStatusFailed
}

// Audit is one dispatched screenshot critique.
type Audit struct {
	ID          string      `json:"id"`
	PageURL     string      `json:"pageUrl"`
	PageTitle   string      `json:"pageTitle"`
	Status      AuditStatus `json:"status"`
	ResultText  string      `json:"resultText,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// StartAuditRequest is the startAudit message payload.
type StartAuditRequest struct {
	ImageData string `json:"imageData" validate:"required"`
	PageURL   string `json:"pageUrl"`
	PageTitle string `json:"pageTitle"`
}

// StartAuditResponse acknowledges a dispatch. It never carries the result.
type StartAuditResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// LatestResult is the single persisted record of the most recently completed audit.
// Timestamp is epoch milliseconds.
type LatestResult struct {
	Result    string `json:"result"`
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id"`
	PageURL   string `json:"pageUrl"`
	PageTitle string `json:"pageTitle"`
}

// CompletedAt returns Timestamp as a time.Time.
func (r LatestResult) CompletedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// LatestResultResponse is the getLatestAuditResult reply; Result is null when nothing is stored.
type LatestResultResponse struct {
	Result *LatestResult `json:"result"`
}

// AckResponse is the clearAuditResult reply.
type AckResponse struct {
	Success bool `json:"success"`
}

// ProxyRequest is the POST /audit body.
type ProxyRequest struct {
	Image string `json:"image" validate:"required"`
}

// ProxyResponse is the POST /audit success body.
type ProxyResponse struct {
	Result string `json:"result"`
}
