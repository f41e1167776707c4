package data

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/domain/model"
)

// AuditRegistry is the process-lifetime map of audits keyed by id.
// It holds no durable state; completions are mirrored to the latest-result slot.
type AuditRegistry struct {
	mu     sync.RWMutex
	audits map[string]model.Audit
}

// NewAuditRegistry constructs an empty registry.
func NewAuditRegistry() *AuditRegistry {
	return &AuditRegistry{audits: make(map[string]model.Audit)}
}

// Create inserts a new pending audit.
func (r *AuditRegistry) Create(audit model.Audit) error {
	if audit.ID == "" {
		return fmt.Errorf("audit id is required")
	}
	if audit.Status == "" {
		audit.Status = model.AuditStatusPending
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.audits[audit.ID]; exists {
		return fmt.Errorf("audit %s already registered", audit.ID)
	}
	r.audits[audit.ID] = audit
	return nil
}

// Get returns a copy of the audit.
func (r *AuditRegistry) Get(id string) (model.Audit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	audit, ok := r.audits[id]
	if !ok {
		return model.Audit{}, model.ErrAuditNotFound
	}
	return audit, nil
}

// Complete moves a pending audit to succeeded.
func (r *AuditRegistry) Complete(id, resultText string, at time.Time) (model.Audit, error) {
	return r.transition(id, at, func(a *model.Audit) {
		a.Status = model.AuditStatusSucceeded
		a.ResultText = resultText
	})
}

// Fail moves a pending audit to failed.
func (r *AuditRegistry) Fail(id, errMsg string, at time.Time) (model.Audit, error) {
	return r.transition(id, at, func(a *model.Audit) {
		a.Status = model.AuditStatusFailed
		a.Error = errMsg
	})
}

func (r *AuditRegistry) transition(id string, at time.Time, apply func(*model.Audit)) (model.Audit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	audit, ok := r.audits[id]
	if !ok {
		return model.Audit{}, model.ErrAuditNotFound
	}
	if audit.Status != model.AuditStatusPending {
		return audit, model.ErrAuditNotPending
	}

	apply(&audit)
	completed := at
	audit.CompletedAt = &completed
	r.audits[id] = audit
	return audit, nil
}

// List returns a snapshot ordered newest first.
func (r *AuditRegistry) List() []model.Audit {
	r.mu.RLock()
	out := make([]model.Audit, 0, len(r.audits))
	for _, a := range r.audits {
		out = append(out, a)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Audit) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// DeleteOlderThan removes audits created before cutoff regardless of status.
func (r *AuditRegistry) DeleteOlderThan(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, a := range r.audits {
		if a.CreatedAt.Before(cutoff) {
			delete(r.audits, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked audits.
func (r *AuditRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.audits)
}

var _ core.AuditRegistry = (*AuditRegistry)(nil)
