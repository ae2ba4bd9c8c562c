// Package eventhandler contains subscribers that react to domain events.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/application/saga"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RE-EVALUATION
// Progression events trigger a badge check for the affected user. The check
// runs asynchronously relative to the request that produced the event; the
// saga's idempotent granting absorbs duplicate or re-ordered triggers.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeReevaluator subscribes to progression events and runs the badge
// award flow.
type BadgeReevaluator struct {
	flow    *saga.BadgeAwardFlowSaga
	timeout time.Duration
	logger  *slog.Logger
}

// NewBadgeReevaluator creates a new BadgeReevaluator.
func NewBadgeReevaluator(flow *saga.BadgeAwardFlowSaga, timeout time.Duration, logger *slog.Logger) *BadgeReevaluator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BadgeReevaluator{flow: flow, timeout: timeout, logger: logger}
}

// Register subscribes the re-evaluator to every event type that can change
// badge eligibility.
func (r *BadgeReevaluator) Register(bus shared.EventSubscriber) error {
	for _, eventType := range []shared.EventType{
		shared.EventXPAwarded,
		shared.EventCourseCompleted,
		shared.EventGigCompleted,
	} {
		if err := bus.Subscribe(eventType, r.handle); err != nil {
			return err
		}
	}
	return nil
}

// handle dispatches one event to the saga in the background.
func (r *BadgeReevaluator) handle(event shared.Event) error {
	input := saga.BadgeCheckInput{Trigger: string(event.EventType())}

	switch e := event.(type) {
	case shared.XPAwardedEvent:
		input.UserID = e.UserID
	case shared.CourseCompletedEvent:
		input.UserID = e.UserID
		input.CourseID = e.CourseID
	case shared.GigCompletedEvent:
		if e.AssigneeID == "" {
			return nil
		}
		input.UserID = e.AssigneeID
	default:
		return nil
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		result, err := r.flow.Execute(ctx, input)
		if err != nil {
			r.logger.Warn("badge re-evaluation failed",
				"user_id", input.UserID, "trigger", input.Trigger, "error", err)
			return
		}
		if result.HasNewBadges() {
			r.logger.Debug("badge re-evaluation granted badges",
				"user_id", input.UserID, "count", len(result.NewBadges))
		}
	}()
	return nil
}
