package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/course"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL / ABANDON COMMANDS
// Enrollment creates the per-user progress record; abandoning parks it in
// its terminal state without rewards.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCourseCommand enrolls a user into a course.
type EnrollCourseCommand struct {
	UserID   string
	CourseID string
}

// Validate validates the command.
func (c EnrollCourseCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("enroll_course: user_id is required")
	}
	if c.CourseID == "" {
		return errors.New("enroll_course: course_id is required")
	}
	return nil
}

// EnrollCourseHandler handles the EnrollCourseCommand.
type EnrollCourseHandler struct {
	courseRepo   course.Repository
	progressRepo course.ProgressRepository
}

// NewEnrollCourseHandler creates a new EnrollCourseHandler.
func NewEnrollCourseHandler(courseRepo course.Repository, progressRepo course.ProgressRepository) *EnrollCourseHandler {
	return &EnrollCourseHandler{courseRepo: courseRepo, progressRepo: progressRepo}
}

// Handle executes the enrollment.
func (h *EnrollCourseHandler) Handle(ctx context.Context, cmd EnrollCourseCommand) (*course.Progress, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("course", "Enroll", shared.ErrValidation,
			"validation failed", err)
	}

	// The course must exist before a record is created for it.
	if _, err := h.courseRepo.GetByID(ctx, cmd.CourseID); err != nil {
		return nil, fmt.Errorf("enroll_course: %w", err)
	}

	progress := course.NewProgress(cmd.UserID, cmd.CourseID)
	if err := h.progressRepo.Create(ctx, progress); err != nil {
		return nil, fmt.Errorf("enroll_course: %w", err)
	}
	return progress, nil
}

// AbandonCourseCommand moves an enrollment into the abandoned state.
type AbandonCourseCommand struct {
	UserID   string
	CourseID string
}

// Validate validates the command.
func (c AbandonCourseCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("abandon_course: user_id is required")
	}
	if c.CourseID == "" {
		return errors.New("abandon_course: course_id is required")
	}
	return nil
}

// AbandonCourseHandler handles the AbandonCourseCommand.
type AbandonCourseHandler struct {
	progressRepo course.ProgressRepository
}

// NewAbandonCourseHandler creates a new AbandonCourseHandler.
func NewAbandonCourseHandler(progressRepo course.ProgressRepository) *AbandonCourseHandler {
	return &AbandonCourseHandler{progressRepo: progressRepo}
}

// Handle executes the abandonment.
func (h *AbandonCourseHandler) Handle(ctx context.Context, cmd AbandonCourseCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("course", "Abandon", shared.ErrValidation,
			"validation failed", err)
	}

	progress, err := h.progressRepo.Get(ctx, cmd.UserID, cmd.CourseID)
	if err != nil {
		return fmt.Errorf("abandon_course: %w", err)
	}
	if err := progress.Abandon(); err != nil {
		return err
	}
	if err := h.progressRepo.Update(ctx, progress); err != nil {
		return fmt.Errorf("abandon_course: %w", err)
	}
	return nil
}
