package course

import (
	"math"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STATUSES
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of a course progress record.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// ModuleStatus is the state of one module within a progress record.
type ModuleStatus string

const (
	ModuleNotStarted ModuleStatus = "not-started"
	ModuleInProgress ModuleStatus = "in-progress"
	ModuleCompleted  ModuleStatus = "completed"
)

// IsValid checks that the module status is known.
func (s ModuleStatus) IsValid() bool {
	switch s {
	case ModuleNotStarted, ModuleInProgress, ModuleCompleted:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORD
// One per (user, course) pair, created at enrollment.
// ══════════════════════════════════════════════════════════════════════════════

// ModuleProgress is the per-module slice of a progress record.
type ModuleProgress struct {
	Status      ModuleStatus
	TimeSpent   time.Duration
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// QuizAttempt is one graded quiz submission.
type QuizAttempt struct {
	Score       int
	Passed      bool
	Answers     map[string]string
	TimeSpent   time.Duration
	SubmittedAt time.Time
}

// Progress is the per-user, per-course record of module and quiz completion.
// The map enforces at most one entry per module.
type Progress struct {
	// UserID / CourseID - owning pair.
	UserID   string
	CourseID string

	// Modules - per-module progress keyed by module ID.
	Modules map[string]*ModuleProgress

	// QuizAttempts - ordered list of graded attempts.
	QuizAttempts []QuizAttempt

	// BestQuizScore - highest score across attempts.
	BestQuizScore int

	// QuizPassed - sticky: once passed, stays passed.
	QuizPassed bool

	// Percentage - weighted aggregate in [0,100].
	Percentage int

	// Status - derived from Percentage, except the terminal abandoned state.
	Status Status

	// EnrolledAt / CompletedAt - lifecycle timestamps. CompletedAt is set
	// exactly once, on the first transition into completed.
	EnrolledAt  time.Time
	CompletedAt *time.Time

	// Version - optimistic-concurrency token.
	Version int

	UpdatedAt time.Time
}

// NewProgress creates an enrollment record.
func NewProgress(userID, courseID string) *Progress {
	now := time.Now().UTC()
	return &Progress{
		UserID:     userID,
		CourseID:   courseID,
		Modules:    make(map[string]*ModuleProgress),
		Status:     StatusNotStarted,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
}

// IsTerminal reports whether the record can still change.
func (p *Progress) IsTerminal() bool {
	return p.Status == StatusAbandoned
}

// ModuleUpdate carries the mutable fields of a module upsert.
type ModuleUpdate struct {
	Status    ModuleStatus
	TimeSpent time.Duration
}

// CompletionChange reports whether a recompute crossed the completion
// boundary for the first time. Course-completion rewards fire only then;
// recomputing an already-completed record never re-fires them.
type CompletionChange struct {
	JustCompleted bool
	ModuleDone    bool // the updated module entered completed for the first time
}

// UpdateModule upserts one module's progress and recomputes the aggregate.
// StartedAt is set on the first transition into in-progress (or straight to
// completed), CompletedAt on the first transition into completed.
func (p *Progress) UpdateModule(c *Course, moduleID string, update ModuleUpdate) (CompletionChange, error) {
	if p.IsTerminal() {
		return CompletionChange{}, shared.NewDomainError("course", "UpdateModule",
			shared.ErrInvalidState, "progress record is abandoned")
	}
	if !update.Status.IsValid() {
		return CompletionChange{}, shared.Validationf("course", "UpdateModule",
			"unknown module status %q", update.Status)
	}
	if _, ok := c.ModuleByID(moduleID); !ok {
		return CompletionChange{}, shared.NewDomainError("course", "UpdateModule",
			shared.ErrNotFound, "module "+moduleID+" not in course "+c.ID)
	}

	now := time.Now().UTC()
	entry, ok := p.Modules[moduleID]
	if !ok {
		entry = &ModuleProgress{Status: ModuleNotStarted}
		p.Modules[moduleID] = entry
	}

	change := CompletionChange{}

	if update.Status != ModuleNotStarted && entry.StartedAt == nil {
		entry.StartedAt = &now
	}
	if update.Status == ModuleCompleted && entry.CompletedAt == nil {
		entry.CompletedAt = &now
		change.ModuleDone = true
	}
	entry.Status = update.Status
	if update.TimeSpent > 0 {
		entry.TimeSpent += update.TimeSpent
	}

	change.JustCompleted = p.recompute(c)
	p.UpdatedAt = now
	return change, nil
}

// Abandon moves a non-completed record into the terminal abandoned state.
func (p *Progress) Abandon() error {
	if p.Status == StatusCompleted {
		return shared.NewDomainError("course", "Abandon",
			shared.ErrInvalidState, "completed courses cannot be abandoned")
	}
	if p.Status == StatusAbandoned {
		return shared.NewDomainError("course", "Abandon",
			shared.ErrInvalidState, "progress record is already abandoned")
	}
	p.Status = StatusAbandoned
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// CompletedModules counts modules in the completed state.
func (p *Progress) CompletedModules() int {
	n := 0
	for _, m := range p.Modules {
		if m.Status == ModuleCompleted {
			n++
		}
	}
	return n
}

// recompute derives the aggregate percentage and status. Returns true when
// the record entered completed for the first time.
//
// With a quiz the modules are worth 80% and the quiz pass 20%; without one
// the modules carry the full weight.
func (p *Progress) recompute(c *Course) bool {
	total := len(c.Modules)
	completed := p.CompletedModules()

	var pct int
	switch {
	case total == 0:
		pct = 0
	case c.HasQuiz():
		pct = int(math.Round(80 * float64(completed) / float64(total)))
		if p.QuizPassed {
			pct += 20
		}
	default:
		pct = int(math.Round(100 * float64(completed) / float64(total)))
	}
	p.Percentage = pct

	wasCompleted := p.Status == StatusCompleted
	switch {
	case pct >= 100:
		p.Status = StatusCompleted
	case pct > 0:
		p.Status = StatusInProgress
	default:
		p.Status = StatusNotStarted
	}

	// CompletedAt is set exactly once and latches completion: a record whose
	// module was downgraded and re-completed re-enters completed without
	// re-firing.
	justCompleted := !wasCompleted && p.Status == StatusCompleted && p.CompletedAt == nil
	if justCompleted {
		now := time.Now().UTC()
		p.CompletedAt = &now
	}
	return justCompleted
}
