package gig

import (
	"context"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository persists gig aggregates, applications included.
type Repository interface {
	// Create inserts a new gig.
	Create(ctx context.Context, g *Gig) error

	// GetByID returns one gig with its applications.
	// Returns shared.ErrNotFound for unknown IDs.
	GetByID(ctx context.Context, id string) (*Gig, error)

	// Update persists the gig with an optimistic version check. Accept and
	// complete paths additionally guard on status and assignee so two racing
	// writers resolve to one winner.
	// Returns shared.ErrOptimisticLock when the guard fails.
	Update(ctx context.Context, g *Gig) error

	// FindNearby returns posted, unexpired gigs within maxDistanceKm of
	// origin, narrowed by the storage layer's geospatial index. Remote gigs
	// carry no location constraint and are always included.
	FindNearby(ctx context.Context, origin shared.GeoPoint, maxDistanceKm float64) ([]*Gig, error)

	// ListExpired returns posted gigs whose expiry has passed, for the
	// background sweep.
	ListExpired(ctx context.Context, limit int) ([]*Gig, error)

	// ListByClient returns gigs posted by a client.
	ListByClient(ctx context.Context, clientID string) ([]*Gig, error)
}
