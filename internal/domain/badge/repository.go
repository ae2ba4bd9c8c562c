package badge

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository reads badge definitions. Definitions are written by an
// administrative surface outside this engine.
type Repository interface {
	// GetByID returns one badge definition.
	// Returns shared.ErrNotFound for unknown IDs.
	GetByID(ctx context.Context, id string) (*Badge, error)

	// ListActive returns all active badge definitions.
	ListActive(ctx context.Context) ([]*Badge, error)

	// ListReferencingCourse returns active badges whose criteria reference
	// the given course, used for re-evaluation after a course completion.
	ListReferencingCourse(ctx context.Context, courseID string) ([]*Badge, error)
}

// EarnedCounter tracks how many users have earned each badge. The counter is
// monotonic and eventually consistent; a Redis counter satisfies it.
type EarnedCounter interface {
	// Increment bumps the badge's global earned count by one.
	Increment(ctx context.Context, badgeID string) error

	// Get returns the current earned count.
	Get(ctx context.Context, badgeID string) (int64, error)
}
