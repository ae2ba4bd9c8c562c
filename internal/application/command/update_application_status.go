package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE APPLICATION STATUS COMMAND
// The gig owner's decision. Acceptance assigns the gig, bulk-rejects every
// other pending application and pays the acceptance XP; two racing accepts
// resolve to one winner through the conditional write.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateApplicationStatusCommand resolves one pending application.
type UpdateApplicationStatusCommand struct {
	GigID         string
	ApplicationID string

	// NewStatus is the terminal status: accepted or rejected. Withdrawal
	// goes through WithdrawApplicationHandler since it is the applicant's
	// action, not the owner's.
	NewStatus gig.ApplicationStatus

	ResponseMessage string
}

// Validate validates the command.
func (c UpdateApplicationStatusCommand) Validate() error {
	if c.GigID == "" {
		return errors.New("update_application_status: gig_id is required")
	}
	if c.ApplicationID == "" {
		return errors.New("update_application_status: application_id is required")
	}
	if c.NewStatus != gig.ApplicationAccepted && c.NewStatus != gig.ApplicationRejected {
		return fmt.Errorf("update_application_status: status must be accepted or rejected, got %q", c.NewStatus)
	}
	return nil
}

// UpdateApplicationStatusResult contains the outcome of the decision.
type UpdateApplicationStatusResult struct {
	GigStatus gig.Status

	// AssignedTo is set when the decision was an acceptance.
	AssignedTo string

	// RejectedCount is the number of pending applications auto-rejected by
	// an acceptance.
	RejectedCount int

	// RewardsPending is true when the acceptance XP grant failed after the
	// durable gig write and still needs to be applied.
	RewardsPending bool
}

// UpdateApplicationStatusHandler handles the UpdateApplicationStatusCommand.
type UpdateApplicationStatusHandler struct {
	gigRepo   gig.Repository
	xp        *AwardXPHandler
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewUpdateApplicationStatusHandler creates a new UpdateApplicationStatusHandler.
func NewUpdateApplicationStatusHandler(
	gigRepo gig.Repository,
	xp *AwardXPHandler,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *UpdateApplicationStatusHandler {
	return &UpdateApplicationStatusHandler{
		gigRepo:   gigRepo,
		xp:        xp,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the decision.
func (h *UpdateApplicationStatusHandler) Handle(ctx context.Context, cmd UpdateApplicationStatusCommand) (*UpdateApplicationStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("gig", "ResolveApplication", shared.ErrValidation,
			"validation failed", err)
	}

	g, err := h.gigRepo.GetByID(ctx, cmd.GigID)
	if err != nil {
		return nil, fmt.Errorf("update_application_status: %w", err)
	}

	now := time.Now().UTC()
	decision, err := g.ResolveApplication(cmd.ApplicationID, cmd.NewStatus, cmd.ResponseMessage, now)
	if err != nil {
		return nil, err
	}

	// The write is conditional on the status and assignee the gig was
	// loaded with; the loser of two simultaneous accepts fails here with a
	// conflict instead of silently overwriting the winner.
	if err := h.gigRepo.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("update_application_status: %w", err)
	}

	app := g.ApplicationByID(cmd.ApplicationID)
	h.publishStatusChange(g, app)

	result := &UpdateApplicationStatusResult{
		GigStatus:     g.Status,
		RejectedCount: len(decision.AutoRejected),
	}

	if decision.Accepted {
		result.AssignedTo = g.AssignedTo

		for _, rejectedID := range decision.AutoRejected {
			h.publishStatusChange(g, g.ApplicationByID(rejectedID))
		}

		if _, err := h.xp.Handle(ctx, AwardXPCommand{
			UserID: app.ApplicantID,
			Amount: gig.AcceptanceXP,
			Reason: ReasonGigAcceptance,
		}); err != nil {
			result.RewardsPending = true
			h.logger.Warn("acceptance xp failed",
				"user_id", app.ApplicantID, "gig_id", cmd.GigID, "error", err)
		}
	}

	return result, nil
}

func (h *UpdateApplicationStatusHandler) publishStatusChange(g *gig.Gig, app *gig.Application) {
	if h.publisher == nil || app == nil {
		return
	}
	event := shared.NewApplicationStatusChangedEvent(
		g.ID, app.ID, app.ApplicantID, string(gig.ApplicationPending), string(app.Status))
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("event publish failed",
			"event_type", event.EventType(), "error", err)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WITHDRAW APPLICATION COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// WithdrawApplicationCommand retracts the applicant's own pending application.
type WithdrawApplicationCommand struct {
	GigID         string
	ApplicationID string
	UserID        string
}

// Validate validates the command.
func (c WithdrawApplicationCommand) Validate() error {
	if c.GigID == "" {
		return errors.New("withdraw_application: gig_id is required")
	}
	if c.ApplicationID == "" {
		return errors.New("withdraw_application: application_id is required")
	}
	if c.UserID == "" {
		return errors.New("withdraw_application: user_id is required")
	}
	return nil
}

// WithdrawApplicationHandler handles the WithdrawApplicationCommand.
type WithdrawApplicationHandler struct {
	gigRepo   gig.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewWithdrawApplicationHandler creates a new WithdrawApplicationHandler.
func NewWithdrawApplicationHandler(gigRepo gig.Repository, publisher shared.EventPublisher, logger *slog.Logger) *WithdrawApplicationHandler {
	return &WithdrawApplicationHandler{gigRepo: gigRepo, publisher: publisher, logger: logger}
}

// Handle executes the withdrawal.
func (h *WithdrawApplicationHandler) Handle(ctx context.Context, cmd WithdrawApplicationCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("gig", "Withdraw", shared.ErrValidation,
			"validation failed", err)
	}

	g, err := h.gigRepo.GetByID(ctx, cmd.GigID)
	if err != nil {
		return fmt.Errorf("withdraw_application: %w", err)
	}
	if err := g.Withdraw(cmd.ApplicationID, cmd.UserID, time.Now().UTC()); err != nil {
		return err
	}
	if err := h.gigRepo.Update(ctx, g); err != nil {
		return fmt.Errorf("withdraw_application: %w", err)
	}

	if h.publisher != nil {
		event := shared.NewApplicationStatusChangedEvent(
			g.ID, cmd.ApplicationID, cmd.UserID,
			string(gig.ApplicationPending), string(gig.ApplicationWithdrawn))
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("event publish failed",
				"event_type", event.EventType(), "error", err)
		}
	}
	return nil
}
