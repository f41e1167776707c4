// Package core defines the ports between the audit services and their adapters.
package core

import (
	"context"
	"time"

	"github.com/target/uxaudit/internal/domain/model"
)

// This file contains port definitions (hexagonal architecture).
// Services depend on these interfaces; data and adapter packages implement them.

// Relayer is the Audit Proxy contract: one synchronous image-to-critique call.
// Implementations are stateless; every call is independent.
type Relayer interface {
	Relay(ctx context.Context, image string) (string, error)
}

// Critic calls the vision-critique model.
type Critic interface {
	Critique(ctx context.Context, image string) (string, error)
}

// LatestResultRepository persists the single latest-result slot.
type LatestResultRepository interface {
	// Save overwrites the slot.
	Save(ctx context.Context, result model.LatestResult) error
	// Get returns nil, nil when the slot is empty.
	Get(ctx context.Context) (*model.LatestResult, error)
	// Clear empties the slot unconditionally.
	Clear(ctx context.Context) error
	Health(ctx context.Context) error
}

// AuditRegistry is the in-memory id -> audit cache.
type AuditRegistry interface {
	Create(audit model.Audit) error
	Get(id string) (model.Audit, error)
	Complete(id, resultText string, at time.Time) (model.Audit, error)
	Fail(id, errMsg string, at time.Time) (model.Audit, error)
	List() []model.Audit
	DeleteOlderThan(cutoff time.Time) int
	Len() int
}

// Notifier shows and clears user-facing notifications.
type Notifier interface {
	Show(ctx context.Context, n model.Notification) error
	Clear(id string) bool
}

// FocusRequester asks the open UI surface to come to the foreground.
type FocusRequester interface {
	Request(auditID string)
}
