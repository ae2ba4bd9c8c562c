package course

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository reads course definitions. Definitions are authored by an
// administrative surface outside this engine.
type Repository interface {
	// GetByID returns one course definition.
	// Returns shared.ErrNotFound for unknown IDs.
	GetByID(ctx context.Context, id string) (*Course, error)
}

// ProgressRepository persists per-user course progress records.
type ProgressRepository interface {
	// Create inserts an enrollment record.
	// Returns shared.ErrConflict when the (user, course) pair already exists.
	Create(ctx context.Context, p *Progress) error

	// Get returns the record for the (user, course) pair.
	// Returns shared.ErrNotFound when the user is not enrolled.
	Get(ctx context.Context, userID, courseID string) (*Progress, error)

	// Update persists the record with an optimistic version check.
	// Returns shared.ErrOptimisticLock when the stored version moved.
	Update(ctx context.Context, p *Progress) error

	// ListByUser returns all of the user's progress records.
	ListByUser(ctx context.Context, userID string) ([]*Progress, error)
}
