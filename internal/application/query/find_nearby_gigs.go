// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND NEARBY GIGS QUERY
// The storage layer's geospatial index narrows by radius; filtering and
// ranking run here so the ordering rules live in one place.
// ══════════════════════════════════════════════════════════════════════════════

// FindNearbyGigsQuery searches posted gigs around an origin.
type FindNearbyGigsQuery struct {
	Origin        shared.GeoPoint
	MaxDistanceKm float64
	Filters       gig.SearchFilters
	Limit         int
}

// Validate validates the query.
func (q FindNearbyGigsQuery) Validate() error {
	if !q.Origin.IsValid() {
		return fmt.Errorf("find_nearby_gigs: invalid origin %v", q.Origin)
	}
	if q.MaxDistanceKm <= 0 {
		return fmt.Errorf("find_nearby_gigs: max distance must be positive, got %.2f", q.MaxDistanceKm)
	}
	return nil
}

// FindNearbyGigsHandler handles the FindNearbyGigsQuery.
type FindNearbyGigsHandler struct {
	gigRepo gig.Repository
}

// NewFindNearbyGigsHandler creates a new FindNearbyGigsHandler.
func NewFindNearbyGigsHandler(gigRepo gig.Repository) *FindNearbyGigsHandler {
	return &FindNearbyGigsHandler{gigRepo: gigRepo}
}

// Handle executes the search.
func (h *FindNearbyGigsHandler) Handle(ctx context.Context, q FindNearbyGigsQuery) ([]gig.Match, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("gig", "FindNearby", shared.ErrValidation,
			"validation failed", err)
	}

	candidates, err := h.gigRepo.FindNearby(ctx, q.Origin, q.MaxDistanceKm)
	if err != nil {
		return nil, fmt.Errorf("find_nearby_gigs: %w", err)
	}

	matches := q.Filters.FilterAndRank(candidates, q.Origin, time.Now().UTC())
	if q.Limit > 0 && q.Limit < len(matches) {
		matches = matches[:q.Limit]
	}
	return matches, nil
}
