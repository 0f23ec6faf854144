// Package store is the persistence façade the orchestrator writes
// through: domain flags, result rows, and discovery events.
package store

import (
	"context"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// Store is the narrow contract the orchestrator depends on.
// Implementations must be safe for concurrent use; the orchestrator
// makes no cross-domain transactional assumptions.
type Store interface {
	// GetOrCreateDomain upserts the domain row (case-insensitive,
	// punycoded name) and returns its id.
	GetOrCreateDomain(ctx context.Context, name string) (int64, error)

	// UpdateDomainFlags sets the tri-state flags; nil leaves a flag
	// untouched.
	UpdateDomainFlags(ctx context.Context, domainID int64, isRegistered, isActive *bool) error

	// SaveResult appends a result row. The result record is stored as
	// an opaque blob; prior history is never deleted.
	SaveResult(ctx context.Context, domainID int64, taskID string, result *model.Result) error

	// InsertCapturedDomain upserts the discovered domain (idempotent,
	// reports whether the row was new) and always appends a discovery
	// event.
	InsertCapturedDomain(ctx context.Context, name, discoveredFrom, method string, metadata map[string]interface{}) (bool, error)
}
