package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY TO GIG COMMAND
// The apply predicate is re-evaluated here at write time; the storage
// layer's conditional update catches whatever raced past it.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyToGigCommand contains one gig application.
type ApplyToGigCommand struct {
	GigID  string
	UserID string

	CoverLetter  string
	ProposedRate float64
}

// Validate validates the command.
func (c ApplyToGigCommand) Validate() error {
	if c.GigID == "" {
		return errors.New("apply_to_gig: gig_id is required")
	}
	if c.UserID == "" {
		return errors.New("apply_to_gig: user_id is required")
	}
	if c.ProposedRate < 0 {
		return fmt.Errorf("apply_to_gig: proposed rate must be non-negative, got %.2f", c.ProposedRate)
	}
	return nil
}

// ApplyToGigHandler handles the ApplyToGigCommand.
type ApplyToGigHandler struct {
	gigRepo gig.Repository
}

// NewApplyToGigHandler creates a new ApplyToGigHandler.
func NewApplyToGigHandler(gigRepo gig.Repository) *ApplyToGigHandler {
	return &ApplyToGigHandler{gigRepo: gigRepo}
}

// Handle executes the application. Returns the created application.
func (h *ApplyToGigHandler) Handle(ctx context.Context, cmd ApplyToGigCommand) (*gig.Application, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("gig", "AddApplication", shared.ErrValidation,
			"validation failed", err)
	}

	g, err := h.gigRepo.GetByID(ctx, cmd.GigID)
	if err != nil {
		return nil, fmt.Errorf("apply_to_gig: %w", err)
	}

	app := gig.Application{
		ID:           uuid.NewString(),
		ApplicantID:  cmd.UserID,
		CoverLetter:  cmd.CoverLetter,
		ProposedRate: cmd.ProposedRate,
	}
	if err := g.AddApplication(app, time.Now().UTC()); err != nil {
		return nil, err
	}

	// The conditional write detects a racing applicant who got in between
	// the read and this update.
	if err := h.gigRepo.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("apply_to_gig: %w", err)
	}
	return g.ApplicationByID(app.ID), nil
}
