package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE GIGS SWEEP
// Background job closing posted gigs whose deadline passed. Search already
// excludes them by expiry, so the sweep only reconciles stored status.
// ══════════════════════════════════════════════════════════════════════════════

// ExpireGigsHandler closes expired gigs in batches.
type ExpireGigsHandler struct {
	gigRepo   gig.Repository
	batchSize int
	logger    *slog.Logger
}

// NewExpireGigsHandler creates a new ExpireGigsHandler.
func NewExpireGigsHandler(gigRepo gig.Repository, batchSize int, logger *slog.Logger) *ExpireGigsHandler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExpireGigsHandler{gigRepo: gigRepo, batchSize: batchSize, logger: logger}
}

// Handle runs one sweep and returns the number of gigs closed. Individual
// failures are logged and skipped; a gig that loses its conditional write
// has been touched concurrently and will be picked up next run if still
// expired.
func (h *ExpireGigsHandler) Handle(ctx context.Context) (int, error) {
	gigs, err := h.gigRepo.ListExpired(ctx, h.batchSize)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	closed := 0
	for _, g := range gigs {
		if err := g.Expire(now); err != nil {
			continue
		}
		if err := h.gigRepo.Update(ctx, g); err != nil {
			if !shared.IsConflict(err) {
				h.logger.Warn("gig expiry write failed", "gig_id", g.ID, "error", err)
			}
			continue
		}
		closed++
	}

	if closed > 0 {
		h.logger.Info("expired gigs closed", "count", closed)
	}
	return closed, nil
}
