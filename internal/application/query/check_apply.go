package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK APPLY QUERY
// Read-time apply check for rendering the apply button. The predicate is
// re-evaluated at write time in ApplyToGigHandler; this result can go stale
// the moment it is returned.
// ══════════════════════════════════════════════════════════════════════════════

// CheckApplyQuery asks whether a user could apply to a gig right now.
type CheckApplyQuery struct {
	GigID  string
	UserID string
}

// Validate validates the query.
func (q CheckApplyQuery) Validate() error {
	if q.GigID == "" {
		return errors.New("check_apply: gig_id is required")
	}
	if q.UserID == "" {
		return errors.New("check_apply: user_id is required")
	}
	return nil
}

// CheckApplyHandler handles the CheckApplyQuery.
type CheckApplyHandler struct {
	gigRepo gig.Repository
}

// NewCheckApplyHandler creates a new CheckApplyHandler.
func NewCheckApplyHandler(gigRepo gig.Repository) *CheckApplyHandler {
	return &CheckApplyHandler{gigRepo: gigRepo}
}

// Handle executes the check.
func (h *CheckApplyHandler) Handle(ctx context.Context, q CheckApplyQuery) (gig.ApplyCheck, error) {
	if err := q.Validate(); err != nil {
		return gig.ApplyCheck{}, shared.WrapError("gig", "CheckApply", shared.ErrValidation,
			"validation failed", err)
	}

	g, err := h.gigRepo.GetByID(ctx, q.GigID)
	if err != nil {
		return gig.ApplyCheck{}, fmt.Errorf("check_apply: %w", err)
	}
	return g.CheckApply(q.UserID, time.Now().UTC()), nil
}
