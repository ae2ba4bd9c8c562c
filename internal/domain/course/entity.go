// Package course contains course, module and quiz definitions plus the
// per-user progress record: module upserts, weighted aggregate percentage,
// quiz grading and first-transition completion detection.
package course

import (
	"time"
)

// Course is a published course definition. Definitions are authored outside
// this engine and read-only here.
type Course struct {
	// ID - unique course identifier.
	ID string

	// Title - display title.
	Title string

	// Skill - the skill this course teaches, referenced by badge criteria.
	Skill string

	// Modules - ordered content units.
	Modules []Module

	// Quiz - optional graded assessment. Nil when the course has none.
	Quiz *Quiz

	// XPReward - XP granted on course completion.
	XPReward int

	// BadgeID - badge awarded on completion, empty when none is configured.
	BadgeID string
}

// Module is one content unit within a course.
type Module struct {
	// ID - unique within the course.
	ID string

	// Title - display title.
	Title string

	// Order - position within the course.
	Order int

	// Duration - expected time to complete.
	Duration time.Duration

	// XPReward - XP granted on module completion.
	XPReward int

	// IsOptional - optional modules still count toward the aggregate but are
	// not required by the admin UI; the engine treats them uniformly.
	IsOptional bool
}

// ModuleByID returns the module definition, or false when absent.
func (c *Course) ModuleByID(moduleID string) (Module, bool) {
	for _, m := range c.Modules {
		if m.ID == moduleID {
			return m, true
		}
	}
	return Module{}, false
}

// HasQuiz reports whether the course carries a graded quiz.
func (c *Course) HasQuiz() bool {
	return c.Quiz != nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

// DefaultPassingScore applies when a quiz does not set its own threshold.
const DefaultPassingScore = 70

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionTrueFalse      QuestionType = "true-false"
	QuestionFillBlank      QuestionType = "fill-blank"
	QuestionShortAnswer    QuestionType = "short-answer"
)

// Option is one selectable answer for choice questions.
type Option struct {
	Text      string
	IsCorrect bool
}

// Question is one graded quiz question.
type Question struct {
	// ID - unique within the quiz.
	ID string

	// Type - question format, drives grading.
	Type QuestionType

	// Text - the question prompt.
	Text string

	// Options - for multiple-choice and true-false; exactly one is flagged
	// correct.
	Options []Option

	// CorrectAnswer - for fill-blank and short-answer; compared
	// case-insensitively after trimming.
	CorrectAnswer string

	// Points - weight of this question in the score.
	Points int
}

// CorrectOptionText returns the text of the single flagged-correct option.
func (q Question) CorrectOptionText() (string, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.Text, true
		}
	}
	return "", false
}

// Quiz is a graded assessment attached to a course.
type Quiz struct {
	// Questions - graded in order.
	Questions []Question

	// PassingScore - minimum percentage score to pass; zero means the
	// default of 70.
	PassingScore int

	// AttemptsAllowed - maximum recorded attempts per user.
	AttemptsAllowed int

	// XPReward - full reward on a passing attempt; failing attempts earn 30%.
	XPReward int
}

// EffectivePassingScore returns the configured threshold or the default.
func (q *Quiz) EffectivePassingScore() int {
	if q.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return q.PassingScore
}

// MaxPoints sums the question weights.
func (q *Quiz) MaxPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}
