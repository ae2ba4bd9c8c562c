package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GIG LIFECYCLE COMMANDS
// Create, post, cancel, complete, plus the expiry sweep driven by the
// scheduler.
// ══════════════════════════════════════════════════════════════════════════════

// CreateGigCommand creates a gig and immediately posts it.
type CreateGigCommand struct {
	ClientID    string
	Title       string
	Description string
	Category    string

	SkillsRequired  []string
	ExperienceLevel shared.SkillLevel
	Remote          bool

	Location shared.GeoPoint
	Budget   shared.BudgetRange
	Priority int

	MaxApplications int
	ExpiresAt       time.Time
}

// Validate validates the command.
func (c CreateGigCommand) Validate() error {
	if c.ClientID == "" {
		return errors.New("create_gig: client_id is required")
	}
	if c.Title == "" {
		return errors.New("create_gig: title is required")
	}
	if c.MaxApplications < 0 {
		return fmt.Errorf("create_gig: max applications must be non-negative, got %d", c.MaxApplications)
	}
	if c.ExperienceLevel != "" && !c.ExperienceLevel.IsValid() {
		return fmt.Errorf("create_gig: unknown experience level %q", c.ExperienceLevel)
	}
	return nil
}

// CreateGigHandler handles the CreateGigCommand.
type CreateGigHandler struct {
	gigRepo gig.Repository
}

// NewCreateGigHandler creates a new CreateGigHandler.
func NewCreateGigHandler(gigRepo gig.Repository) *CreateGigHandler {
	return &CreateGigHandler{gigRepo: gigRepo}
}

// Handle creates and posts the gig.
func (h *CreateGigHandler) Handle(ctx context.Context, cmd CreateGigCommand) (*gig.Gig, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("gig", "Create", shared.ErrValidation,
			"validation failed", err)
	}

	now := time.Now().UTC()
	g := &gig.Gig{
		ID:              uuid.NewString(),
		ClientID:        cmd.ClientID,
		Title:           cmd.Title,
		Description:     cmd.Description,
		Category:        cmd.Category,
		SkillsRequired:  cmd.SkillsRequired,
		ExperienceLevel: cmd.ExperienceLevel,
		Remote:          cmd.Remote,
		Location:        cmd.Location,
		Budget:          cmd.Budget,
		Priority:        cmd.Priority,
		Status:          gig.StatusDraft,
		MaxApplications: cmd.MaxApplications,
		ExpiresAt:       cmd.ExpiresAt,
		CreatedAt:       now,
	}
	if err := g.Post(now); err != nil {
		return nil, err
	}
	if err := h.gigRepo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create_gig: %w", err)
	}
	return g, nil
}

// CancelGigCommand retracts a posted gig.
type CancelGigCommand struct {
	GigID    string
	ClientID string
}

// Validate validates the command.
func (c CancelGigCommand) Validate() error {
	if c.GigID == "" {
		return errors.New("cancel_gig: gig_id is required")
	}
	if c.ClientID == "" {
		return errors.New("cancel_gig: client_id is required")
	}
	return nil
}

// CancelGigHandler handles the CancelGigCommand.
type CancelGigHandler struct {
	gigRepo gig.Repository
}

// NewCancelGigHandler creates a new CancelGigHandler.
func NewCancelGigHandler(gigRepo gig.Repository) *CancelGigHandler {
	return &CancelGigHandler{gigRepo: gigRepo}
}

// Handle executes the cancellation. Only the posting client may cancel.
func (h *CancelGigHandler) Handle(ctx context.Context, cmd CancelGigCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("gig", "Cancel", shared.ErrValidation,
			"validation failed", err)
	}

	g, err := h.gigRepo.GetByID(ctx, cmd.GigID)
	if err != nil {
		return fmt.Errorf("cancel_gig: %w", err)
	}
	if g.ClientID != cmd.ClientID {
		return shared.Validationf("gig", "Cancel",
			"gig %s does not belong to client %s", cmd.GigID, cmd.ClientID)
	}
	if err := g.Cancel(time.Now().UTC()); err != nil {
		return err
	}
	if err := h.gigRepo.Update(ctx, g); err != nil {
		return fmt.Errorf("cancel_gig: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE GIG COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CompleteGigCommand finishes an in-progress gig with the client's rating.
type CompleteGigCommand struct {
	GigID        string
	ClientRating int
	Feedback     string
}

// Validate validates the command.
func (c CompleteGigCommand) Validate() error {
	if c.GigID == "" {
		return errors.New("complete_gig: gig_id is required")
	}
	if c.ClientRating < 1 || c.ClientRating > 5 {
		return fmt.Errorf("complete_gig: rating must be between 1 and 5, got %d", c.ClientRating)
	}
	return nil
}

// CompleteGigResult contains the completion outcome.
type CompleteGigResult struct {
	WorkerID  string
	XPAwarded int

	// RewardsPending is true when the worker's reward grant failed after the
	// durable gig write and still needs to be applied.
	RewardsPending bool
}

// CompleteGigHandler handles the CompleteGigCommand.
type CompleteGigHandler struct {
	gigRepo   gig.Repository
	xp        *AwardXPHandler
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewCompleteGigHandler creates a new CompleteGigHandler.
func NewCompleteGigHandler(
	gigRepo gig.Repository,
	xp *AwardXPHandler,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *CompleteGigHandler {
	return &CompleteGigHandler{
		gigRepo:   gigRepo,
		xp:        xp,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the completion. The worker's counter, rating and XP are
// applied through the progression write path so they land in one state
// write.
func (h *CompleteGigHandler) Handle(ctx context.Context, cmd CompleteGigCommand) (*CompleteGigResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("gig", "Complete", shared.ErrValidation,
			"validation failed", err)
	}

	g, err := h.gigRepo.GetByID(ctx, cmd.GigID)
	if err != nil {
		return nil, fmt.Errorf("complete_gig: %w", err)
	}

	now := time.Now().UTC()
	reward, err := g.Complete(cmd.ClientRating, cmd.Feedback, now)
	if err != nil {
		return nil, err
	}

	if err := h.gigRepo.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("complete_gig: %w", err)
	}

	result := &CompleteGigResult{}
	if reward != nil {
		result.WorkerID = reward.WorkerID
		result.XPAwarded = reward.XP

		if _, err := h.xp.Handle(ctx, AwardXPCommand{
			UserID:       reward.WorkerID,
			Amount:       reward.XP,
			Reason:       ReasonGigCompletion,
			OccurredAt:   now,
			GigCompleted: &GigCompletionEffect{ClientRating: reward.ClientRating},
		}); err != nil {
			result.XPAwarded = 0
			result.RewardsPending = true
			h.logger.Warn("gig completion rewards failed",
				"user_id", reward.WorkerID, "gig_id", cmd.GigID, "error", err)
		}
	}

	if h.publisher != nil {
		event := shared.NewGigCompletedEvent(g.ID, g.ClientID, g.AssignedTo, result.XPAwarded)
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("event publish failed",
				"event_type", event.EventType(), "error", err)
		}
	}
	return result, nil
}
