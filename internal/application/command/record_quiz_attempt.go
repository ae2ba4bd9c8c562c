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
// RECORD QUIZ ATTEMPT COMMAND
// Grades a submission, enforces the attempt limit, and pays the per-attempt
// XP: the full quiz reward on a pass, 30% on a fail.
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizAttemptCommand contains one quiz submission.
type RecordQuizAttemptCommand struct {
	UserID   string
	CourseID string

	// Answers maps question ID to the submitted answer text.
	Answers map[string]string

	// TimeSpent on this attempt.
	TimeSpent time.Duration
}

// Validate validates the command.
func (c RecordQuizAttemptCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("record_quiz_attempt: user_id is required")
	}
	if c.CourseID == "" {
		return errors.New("record_quiz_attempt: course_id is required")
	}
	if len(c.Answers) == 0 {
		return errors.New("record_quiz_attempt: answers are required")
	}
	return nil
}

// RecordQuizAttemptResult contains the graded outcome.
type RecordQuizAttemptResult struct {
	Score         int
	Passed        bool
	AttemptNumber int
	Percentage    int

	// CourseCompleted - the pass pushed the aggregate to 100 for the first
	// time.
	CourseCompleted bool

	// XPAwarded - total XP paid out by this attempt.
	XPAwarded int

	// RewardsPending - an XP grant failed after the durable progress write
	// and still needs to be applied.
	RewardsPending bool
}

// RecordQuizAttemptHandler handles the RecordQuizAttemptCommand.
type RecordQuizAttemptHandler struct {
	courseRepo   course.Repository
	progressRepo course.ProgressRepository
	xp           *AwardXPHandler
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewRecordQuizAttemptHandler creates a new RecordQuizAttemptHandler.
func NewRecordQuizAttemptHandler(
	courseRepo course.Repository,
	progressRepo course.ProgressRepository,
	xp *AwardXPHandler,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RecordQuizAttemptHandler {
	return &RecordQuizAttemptHandler{
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		xp:           xp,
		publisher:    publisher,
		logger:       logger,
	}
}

// Handle executes the quiz attempt.
func (h *RecordQuizAttemptHandler) Handle(ctx context.Context, cmd RecordQuizAttemptCommand) (*RecordQuizAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("course", "RecordQuizAttempt", shared.ErrValidation,
			"validation failed", err)
	}

	crs, err := h.courseRepo.GetByID(ctx, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("record_quiz_attempt: %w", err)
	}
	progress, err := h.progressRepo.Get(ctx, cmd.UserID, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("record_quiz_attempt: %w", err)
	}

	attempt, err := progress.RecordQuizAttempt(crs, cmd.Answers, cmd.TimeSpent)
	if err != nil {
		return nil, err
	}

	if err := h.progressRepo.Update(ctx, progress); err != nil {
		return nil, fmt.Errorf("record_quiz_attempt: %w", err)
	}

	result := &RecordQuizAttemptResult{
		Score:           attempt.Score,
		Passed:          attempt.Passed,
		AttemptNumber:   attempt.AttemptNumber,
		Percentage:      progress.Percentage,
		CourseCompleted: attempt.JustCompleted,
	}

	if amount := course.AttemptXP(crs.Quiz, attempt.Passed); amount > 0 {
		if _, err := h.xp.Handle(ctx, AwardXPCommand{
			UserID: cmd.UserID,
			Amount: amount,
			Reason: ReasonQuizAttempt,
		}); err != nil {
			result.RewardsPending = true
			h.logger.Warn("quiz attempt xp failed",
				"user_id", cmd.UserID, "course_id", cmd.CourseID, "error", err)
		} else {
			result.XPAwarded += amount
		}
	}

	if h.publisher != nil {
		event := shared.NewQuizAttemptRecordedEvent(
			cmd.UserID, cmd.CourseID, attempt.Score, attempt.Passed, attempt.AttemptNumber)
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("event publish failed",
				"event_type", event.EventType(), "error", err)
		}
	}

	if attempt.JustCompleted {
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
