package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Delivery to the real-time layer is at-least-once and
// fire-and-forget; the engine never blocks on acknowledgement.
const (
	// Progression events
	EventXPAwarded     EventType = "progression.xp_awarded"
	EventLevelUp       EventType = "progression.level_up"
	EventStreakUpdated EventType = "progression.streak_updated"
	EventStreakBroken  EventType = "progression.streak_broken"

	// Badge events
	EventBadgeAwarded EventType = "badge.awarded"

	// Course events
	EventModuleCompleted     EventType = "course.module_completed"
	EventCourseCompleted     EventType = "course.completed"
	EventQuizAttemptRecorded EventType = "course.quiz_attempt_recorded"

	// Gig events
	EventApplicationStatusChanged EventType = "gig.application_status_changed"
	EventGigCompleted             EventType = "gig.completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPAwardedEvent is emitted whenever a user gains XP.
type XPAwardedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Amount int    `json:"amount"`
	NewXP  int    `json:"new_xp"`
	Reason string `json:"reason"` // e.g. "course_completion", "badge_reward"
}

// Payload implements Event interface.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"amount":  e.Amount,
		"new_xp":  e.NewXP,
		"reason":  e.Reason,
	}
}

// NewXPAwardedEvent creates a new XPAwardedEvent.
func NewXPAwardedEvent(userID string, amount, newXP int, reason string) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent: NewBaseEvent(EventXPAwarded, userID),
		UserID:    userID,
		Amount:    amount,
		NewXP:     newXP,
		Reason:    reason,
	}
}

// LevelUpEvent is emitted when an XP award crosses a level threshold.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// StreakBrokenEvent is emitted when a gap of more than one calendar day
// resets a user's activity streak.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	PreviousStreak int    `json:"previous_streak"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID string, previousStreak int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID),
		UserID:         userID,
		PreviousStreak: previousStreak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeAwardedEvent is emitted when a badge is added to a user's earned set.
type BadgeAwardedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	BadgeID  string `json:"badge_id"`
	CourseID string `json:"course_id,omitempty"` // originating course for course-scoped badges
	XPReward int    `json:"xp_reward"`
}

// Payload implements Event interface.
func (e BadgeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"badge_id":  e.BadgeID,
		"course_id": e.CourseID,
		"xp_reward": e.XPReward,
	}
}

// NewBadgeAwardedEvent creates a new BadgeAwardedEvent.
func NewBadgeAwardedEvent(userID, badgeID, courseID string, xpReward int) BadgeAwardedEvent {
	return BadgeAwardedEvent{
		BaseEvent: NewBaseEvent(EventBadgeAwarded, userID),
		UserID:    userID,
		BadgeID:   badgeID,
		CourseID:  courseID,
		XPReward:  xpReward,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Course Events
// ═══════════════════════════════════════════════════════════════════════════

// ModuleCompletedEvent is emitted when a module enters completed for the
// first time within a progress record.
type ModuleCompletedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	ModuleID   string `json:"module_id"`
	Percentage int    `json:"percentage"`
}

// Payload implements Event interface.
func (e ModuleCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"course_id":  e.CourseID,
		"module_id":  e.ModuleID,
		"percentage": e.Percentage,
	}
}

// NewModuleCompletedEvent creates a new ModuleCompletedEvent.
func NewModuleCompletedEvent(userID, courseID, moduleID string, percentage int) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		BaseEvent:  NewBaseEvent(EventModuleCompleted, userID),
		UserID:     userID,
		CourseID:   courseID,
		ModuleID:   moduleID,
		Percentage: percentage,
	}
}

// CourseCompletedEvent is emitted on the first transition of a course
// progress record into the completed state.
type CourseCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	XPEarned int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"course_id": e.CourseID,
		"xp_earned": e.XPEarned,
	}
}

// NewCourseCompletedEvent creates a new CourseCompletedEvent.
func NewCourseCompletedEvent(userID, courseID string, xpEarned int) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent: NewBaseEvent(EventCourseCompleted, userID),
		UserID:    userID,
		CourseID:  courseID,
		XPEarned:  xpEarned,
	}
}

// QuizAttemptRecordedEvent is emitted after each graded quiz attempt.
type QuizAttemptRecordedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Score    int    `json:"score"`
	Passed   bool   `json:"passed"`
	Attempt  int    `json:"attempt"`
}

// Payload implements Event interface.
func (e QuizAttemptRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"course_id": e.CourseID,
		"score":     e.Score,
		"passed":    e.Passed,
		"attempt":   e.Attempt,
	}
}

// NewQuizAttemptRecordedEvent creates a new QuizAttemptRecordedEvent.
func NewQuizAttemptRecordedEvent(userID, courseID string, score int, passed bool, attempt int) QuizAttemptRecordedEvent {
	return QuizAttemptRecordedEvent{
		BaseEvent: NewBaseEvent(EventQuizAttemptRecorded, userID),
		UserID:    userID,
		CourseID:  courseID,
		Score:     score,
		Passed:    passed,
		Attempt:   attempt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Gig Events
// ═══════════════════════════════════════════════════════════════════════════

// ApplicationStatusChangedEvent is emitted when an application leaves pending.
type ApplicationStatusChangedEvent struct {
	BaseEvent
	GigID         string `json:"gig_id"`
	ApplicationID string `json:"application_id"`
	ApplicantID   string `json:"applicant_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
}

// Payload implements Event interface.
func (e ApplicationStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"gig_id":         e.GigID,
		"application_id": e.ApplicationID,
		"applicant_id":   e.ApplicantID,
		"old_status":     e.OldStatus,
		"new_status":     e.NewStatus,
	}
}

// NewApplicationStatusChangedEvent creates a new ApplicationStatusChangedEvent.
func NewApplicationStatusChangedEvent(gigID, applicationID, applicantID, oldStatus, newStatus string) ApplicationStatusChangedEvent {
	return ApplicationStatusChangedEvent{
		BaseEvent:     NewBaseEvent(EventApplicationStatusChanged, gigID),
		GigID:         gigID,
		ApplicationID: applicationID,
		ApplicantID:   applicantID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
	}
}

// GigCompletedEvent is emitted when a gig reaches the completed state.
type GigCompletedEvent struct {
	BaseEvent
	GigID      string `json:"gig_id"`
	ClientID   string `json:"client_id"`
	AssigneeID string `json:"assignee_id,omitempty"`
	XPEarned   int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e GigCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"gig_id":      e.GigID,
		"client_id":   e.ClientID,
		"assignee_id": e.AssigneeID,
		"xp_earned":   e.XPEarned,
	}
}

// NewGigCompletedEvent creates a new GigCompletedEvent.
func NewGigCompletedEvent(gigID, clientID, assigneeID string, xpEarned int) GigCompletedEvent {
	return GigCompletedEvent{
		BaseEvent:  NewBaseEvent(EventGigCompleted, gigID),
		GigID:      gigID,
		ClientID:   clientID,
		AssigneeID: assigneeID,
		XPEarned:   xpEarned,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
// This is the engine's view of the external real-time sink.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
