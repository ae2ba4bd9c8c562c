package user

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract with the storage layer. Implementations
// live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository persists user progress state.
type Repository interface {
	// Create stores a new progress state.
	// Returns shared.ErrConflict if the user already has one.
	Create(ctx context.Context, state *ProgressState) error

	// GetByID returns the progress state for a user.
	// Returns shared.ErrNotFound if the user is unknown to the engine.
	GetByID(ctx context.Context, userID string) (*ProgressState, error)

	// Update persists a mutated state with a compare-and-swap on the version
	// the state was loaded with. Returns shared.ErrOptimisticLock when a
	// concurrent writer got there first; the caller reloads and retries or
	// surfaces the conflict.
	Update(ctx context.Context, state *ProgressState) error

	// AppendXPHistory records a single XP change. History is append-only.
	AppendXPHistory(ctx context.Context, entry XPHistoryEntry) error

	// GetXPHistory returns the most recent XP changes, newest first.
	GetXPHistory(ctx context.Context, userID string, limit int) ([]XPHistoryEntry, error)
}
