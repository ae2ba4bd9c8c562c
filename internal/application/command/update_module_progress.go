package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/course"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE MODULE PROGRESS COMMAND
// Upserts one module's state inside a progress record and pays out the
// rewards that hang off first-time transitions.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateModuleProgressCommand records a user's progress on one module.
type UpdateModuleProgressCommand struct {
	UserID   string
	CourseID string
	ModuleID string

	// Status is the module's new state.
	Status course.ModuleStatus

	// TimeSpent is added to the module's accumulated time.
	TimeSpent time.Duration
}

// Validate validates the command.
func (c UpdateModuleProgressCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("update_module_progress: user_id is required")
	}
	if c.CourseID == "" {
		return errors.New("update_module_progress: course_id is required")
	}
	if c.ModuleID == "" {
		return errors.New("update_module_progress: module_id is required")
	}
	return nil
}

// UpdateModuleProgressResult contains the outcome of the update.
type UpdateModuleProgressResult struct {
	Percentage int
	Status     course.Status

	// ModuleCompleted - the module entered completed for the first time.
	ModuleCompleted bool

	// CourseCompleted - the aggregate crossed 100 for the first time.
	CourseCompleted bool

	// XPAwarded - total XP paid out by this update.
	XPAwarded int

	// RewardsPending - an XP grant failed after the durable progress write
	// and still needs to be applied.
	RewardsPending bool
}

// UpdateModuleProgressHandler handles the UpdateModuleProgressCommand.
type UpdateModuleProgressHandler struct {
	courseRepo   course.Repository
	progressRepo course.ProgressRepository
	xp           *AwardXPHandler
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewUpdateModuleProgressHandler creates a new UpdateModuleProgressHandler.
func NewUpdateModuleProgressHandler(
	courseRepo course.Repository,
	progressRepo course.ProgressRepository,
	xp *AwardXPHandler,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *UpdateModuleProgressHandler {
	return &UpdateModuleProgressHandler{
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		xp:           xp,
		publisher:    publisher,
		logger:       logger,
	}
}

// Handle executes the update. The progress write uses an optimistic version
// check; a lost race surfaces as a conflict for the caller to retry with
// fresh state.
func (h *UpdateModuleProgressHandler) Handle(ctx context.Context, cmd UpdateModuleProgressCommand) (*UpdateModuleProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("course", "UpdateModuleProgress", shared.ErrValidation,
			"validation failed", err)
	}

	crs, err := h.courseRepo.GetByID(ctx, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("update_module_progress: %w", err)
	}
	progress, err := h.progressRepo.Get(ctx, cmd.UserID, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("update_module_progress: %w", err)
	}

	change, err := progress.UpdateModule(crs, cmd.ModuleID, course.ModuleUpdate{
		Status:    cmd.Status,
		TimeSpent: cmd.TimeSpent,
	})
	if err != nil {
		return nil, err
	}

	if err := h.progressRepo.Update(ctx, progress); err != nil {
		return nil, fmt.Errorf("update_module_progress: %w", err)
	}

	result := &UpdateModuleProgressResult{
		Percentage:      progress.Percentage,
		Status:          progress.Status,
		ModuleCompleted: change.ModuleDone,
		CourseCompleted: change.JustCompleted,
	}

	if change.ModuleDone {
		if module, ok := crs.ModuleByID(cmd.ModuleID); ok && module.XPReward > 0 {
			if _, err := h.xp.Handle(ctx, AwardXPCommand{
				UserID: cmd.UserID,
				Amount: module.XPReward,
				Reason: ReasonModuleCompletion,
			}); err != nil {
				result.RewardsPending = true
				h.logger.Warn("module completion xp failed",
					"user_id", cmd.UserID, "module_id", cmd.ModuleID, "error", err)
			} else {
				result.XPAwarded += module.XPReward
			}
		}
		h.publishModuleCompleted(cmd, progress)
	}

	if change.JustCompleted {
		awarded, err := completeCourse(ctx, h.xp, cmd.UserID, crs)
		if err != nil {
			result.RewardsPending = true
			h.logger.Warn("course completion rewards failed",
				"user_id", cmd.UserID, "course_id", cmd.CourseID, "error", err)
		}
		result.XPAwarded += awarded
	}

	return result, nil
}

func (h *UpdateModuleProgressHandler) publishModuleCompleted(cmd UpdateModuleProgressCommand, progress *course.Progress) {
	if h.publisher == nil {
		return
	}
	event := shared.NewModuleCompletedEvent(cmd.UserID, cmd.CourseID, cmd.ModuleID, progress.Percentage)
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("event publish failed",
			"event_type", event.EventType(), "error", err)
	}
}

// completeCourse pays out the first-transition completion rewards: the
// course XP plus marking the course completed on the user state, in one
// write. Badge re-evaluation runs asynchronously off the published event.
func completeCourse(ctx context.Context, xp *AwardXPHandler, userID string, crs *course.Course) (int, error) {
	_, err := xp.Handle(ctx, AwardXPCommand{
		UserID:            userID,
		Amount:            crs.XPReward,
		Reason:            ReasonCourseCompletion,
		CompletedCourseID: crs.ID,
	})
	if err != nil {
		return 0, err
	}
	return crs.XPReward, nil
}
