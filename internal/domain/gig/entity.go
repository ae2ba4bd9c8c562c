// Package gig contains the marketplace gig aggregate: posting lifecycle,
// the application queue with its single-acceptance invariant, and completion
// rewards.
package gig

import (
	"math"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUSES
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of a gig.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPosted     Status = "posted"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusDisputed   Status = "disputed"
)

// IsTerminal reports whether the gig can still change state. Disputed gigs
// are resolved by a manual action outside this engine.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ApplicationStatus is the lifecycle state of one application. Every state
// except pending is terminal.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// IsValid checks that the status is a known resolution target.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
		return true
	default:
		return false
	}
}

// RejectionFilledMessage is attached to pending applications that lose to an
// accepted one.
const RejectionFilledMessage = "Position has been filled"

// AcceptanceXP is granted to the applicant whose application is accepted.
const AcceptanceXP = 150

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Application is one worker's request to be assigned a gig.
type Application struct {
	ID          string
	ApplicantID string
	Status      ApplicationStatus

	// CoverLetter / ProposedRate - applicant-supplied details.
	CoverLetter  string
	ProposedRate float64

	AppliedAt time.Time

	// ResponseAt / ResponseMessage - set once, when the application leaves
	// pending.
	ResponseAt      *time.Time
	ResponseMessage string
}

// Gig is a posted short-term job with geolocation, budget and an application
// queue.
type Gig struct {
	ID       string
	ClientID string

	Title       string
	Description string
	Category    string

	// SkillsRequired - skill names the client asks for, matched as filters.
	SkillsRequired []string

	// ExperienceLevel - minimum applicant level band, matched as a filter.
	ExperienceLevel shared.SkillLevel

	// Remote - no on-site presence required.
	Remote bool

	Location shared.GeoPoint
	Budget   shared.BudgetRange

	// Priority - client-paid boost; higher sorts first in search results.
	Priority int

	Status Status

	Applications    []Application
	MaxApplications int

	// AssignedTo / AssignedAt - set exactly once, on acceptance.
	AssignedTo string
	AssignedAt *time.Time

	// ClientRating / WorkerFeedback - attached at completion.
	ClientRating   int
	WorkerFeedback string

	ExpiresAt   time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time

	// Version - optimistic-concurrency token. Acceptance and completion also
	// guard on Status and AssignedTo in the storage layer.
	Version int
}

// ApplicationByID returns the application, or nil when absent.
func (g *Gig) ApplicationByID(applicationID string) *Application {
	for i := range g.Applications {
		if g.Applications[i].ID == applicationID {
			return &g.Applications[i]
		}
	}
	return nil
}

// HasApplicationFrom reports whether the user already applied, regardless of
// the application's status.
func (g *Gig) HasApplicationFrom(userID string) bool {
	for i := range g.Applications {
		if g.Applications[i].ApplicantID == userID {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// ApplyCheck is the outcome of the canApply predicate. Reason is empty when
// CanApply is true.
type ApplyCheck struct {
	CanApply bool
	Reason   string
}

// CheckApply evaluates whether the user may apply right now. The checks run
// in a fixed order and the first failure wins. Callers must re-evaluate this
// at write time under the storage layer's conditional update, not only when
// rendering the apply button.
func (g *Gig) CheckApply(userID string, now time.Time) ApplyCheck {
	if g.Status != StatusPosted {
		return ApplyCheck{Reason: "Gig is not accepting applications"}
	}
	if !now.Before(g.ExpiresAt) {
		return ApplyCheck{Reason: "Gig has expired"}
	}
	if userID == g.ClientID {
		return ApplyCheck{Reason: "Cannot apply to own gig"}
	}
	if g.HasApplicationFrom(userID) {
		return ApplyCheck{Reason: "Already applied to this gig"}
	}
	if g.MaxApplications > 0 && len(g.Applications) >= g.MaxApplications {
		return ApplyCheck{Reason: "Maximum applications reached"}
	}
	return ApplyCheck{CanApply: true}
}

// AddApplication re-checks the apply predicate and appends a pending
// application. A failed check surfaces as a conflict carrying the reason.
func (g *Gig) AddApplication(app Application, now time.Time) error {
	check := g.CheckApply(app.ApplicantID, now)
	if !check.CanApply {
		return shared.NewDomainError("gig", "AddApplication", shared.ErrConflict, check.Reason)
	}

	app.Status = ApplicationPending
	app.AppliedAt = now
	g.Applications = append(g.Applications, app)
	return nil
}

// Decision is the effect of resolving one application.
type Decision struct {
	// Accepted - the application moved to accepted and the gig was assigned.
	Accepted bool

	// AutoRejected - application IDs of pending applications rejected as a
	// side effect of an acceptance.
	AutoRejected []string
}

// ResolveApplication moves a pending application to a terminal status. Only
// transitions out of pending are permitted; resolving an already-resolved
// application fails with a state error. On acceptance the gig is assigned,
// moves to in-progress, and every other pending application is rejected with
// RejectionFilledMessage.
func (g *Gig) ResolveApplication(applicationID string, newStatus ApplicationStatus, responseMessage string, now time.Time) (Decision, error) {
	if !newStatus.IsValid() || newStatus == ApplicationPending {
		return Decision{}, shared.Validationf("gig", "ResolveApplication",
			"invalid target status %q", newStatus)
	}

	app := g.ApplicationByID(applicationID)
	if app == nil {
		return Decision{}, shared.NewDomainError("gig", "ResolveApplication",
			shared.ErrNotFound, "application "+applicationID+" not found on gig "+g.ID)
	}
	if app.Status != ApplicationPending {
		return Decision{}, shared.NewDomainError("gig", "ResolveApplication",
			shared.ErrInvalidState, "application is already "+string(app.Status))
	}

	// Acceptance guards run before any mutation so an error branch leaves the
	// aggregate untouched.
	if newStatus == ApplicationAccepted {
		if g.Status != StatusPosted && g.Status != StatusInProgress {
			return Decision{}, shared.NewDomainError("gig", "ResolveApplication",
				shared.ErrInvalidState, "gig is "+string(g.Status)+", cannot accept applications")
		}
		if g.AssignedTo != "" {
			return Decision{}, shared.Conflictf("gig", "ResolveApplication",
				"gig is already assigned to %s", g.AssignedTo)
		}
	}

	app.Status = newStatus
	app.ResponseAt = &now
	app.ResponseMessage = responseMessage

	if newStatus != ApplicationAccepted {
		return Decision{}, nil
	}

	g.AssignedTo = app.ApplicantID
	g.AssignedAt = &now
	g.Status = StatusInProgress

	decision := Decision{Accepted: true}
	for i := range g.Applications {
		other := &g.Applications[i]
		if other.ID == applicationID || other.Status != ApplicationPending {
			continue
		}
		other.Status = ApplicationRejected
		other.ResponseAt = &now
		other.ResponseMessage = RejectionFilledMessage
		decision.AutoRejected = append(decision.AutoRejected, other.ID)
	}
	return decision, nil
}

// Withdraw lets the applicant retract their own pending application.
func (g *Gig) Withdraw(applicationID, userID string, now time.Time) error {
	app := g.ApplicationByID(applicationID)
	if app == nil {
		return shared.NewDomainError("gig", "Withdraw",
			shared.ErrNotFound, "application "+applicationID+" not found on gig "+g.ID)
	}
	if app.ApplicantID != userID {
		return shared.Validationf("gig", "Withdraw",
			"application %s does not belong to user %s", applicationID, userID)
	}
	if app.Status != ApplicationPending {
		return shared.NewDomainError("gig", "Withdraw",
			shared.ErrInvalidState, "application is already "+string(app.Status))
	}
	app.Status = ApplicationWithdrawn
	app.ResponseAt = &now
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GIG LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Post moves a draft gig into the posted state.
func (g *Gig) Post(now time.Time) error {
	if g.Status != StatusDraft {
		return shared.NewDomainError("gig", "Post",
			shared.ErrInvalidState, "gig is "+string(g.Status)+", only drafts can be posted")
	}
	if !g.Location.IsValid() {
		return shared.Validationf("gig", "Post", "invalid location %v", g.Location)
	}
	if !g.Budget.IsValid() {
		return shared.Validationf("gig", "Post", "invalid budget range %v", g.Budget)
	}
	if !now.Before(g.ExpiresAt) {
		return shared.Validationf("gig", "Post", "expiry %s is in the past", g.ExpiresAt)
	}
	g.Status = StatusPosted
	return nil
}

// RejectionCancelledMessage is attached to pending applications when the gig
// is cancelled.
const RejectionCancelledMessage = "Gig was cancelled"

// Cancel retracts a posted gig and rejects its pending applications.
// Assigned or finished gigs cannot be cancelled through this path.
func (g *Gig) Cancel(now time.Time) error {
	if g.Status != StatusPosted {
		return shared.NewDomainError("gig", "Cancel",
			shared.ErrInvalidState, "gig is "+string(g.Status)+", only posted gigs can be cancelled")
	}
	g.Status = StatusCancelled
	for i := range g.Applications {
		app := &g.Applications[i]
		if app.Status != ApplicationPending {
			continue
		}
		app.Status = ApplicationRejected
		app.ResponseAt = &now
		app.ResponseMessage = RejectionCancelledMessage
	}
	return nil
}

// CompletionReward is the payout computed when a gig completes with an
// assignee.
type CompletionReward struct {
	WorkerID     string
	XP           int
	ClientRating int
}

// CompletionXPFloor is the minimum XP granted for completing a gig; larger
// budgets pay 10% of the budget minimum instead.
const CompletionXPFloor = 200

// Complete finishes an in-progress gig, attaching the client's rating and
// feedback. Returns the worker reward, or nil when the gig had no assignee.
func (g *Gig) Complete(clientRating int, feedback string, now time.Time) (*CompletionReward, error) {
	if g.Status != StatusInProgress {
		return nil, shared.NewDomainError("gig", "Complete",
			shared.ErrInvalidState, "gig is "+string(g.Status)+", only in-progress gigs can be completed")
	}
	if clientRating < 1 || clientRating > 5 {
		return nil, shared.Validationf("gig", "Complete",
			"client rating %d outside [1,5]", clientRating)
	}

	g.Status = StatusCompleted
	g.CompletedAt = &now
	g.ClientRating = clientRating
	g.WorkerFeedback = feedback

	if g.AssignedTo == "" {
		return nil, nil
	}
	return &CompletionReward{
		WorkerID:     g.AssignedTo,
		XP:           completionXP(g.Budget),
		ClientRating: clientRating,
	}, nil
}

// Expire moves a posted gig past its deadline into cancelled. Used by the
// background sweep; a no-op error for gigs that already left posted.
func (g *Gig) Expire(now time.Time) error {
	if g.Status != StatusPosted {
		return shared.NewDomainError("gig", "Expire",
			shared.ErrInvalidState, "gig is "+string(g.Status))
	}
	if now.Before(g.ExpiresAt) {
		return shared.NewDomainError("gig", "Expire",
			shared.ErrInvalidState, "gig has not reached its expiry")
	}
	g.Status = StatusCancelled
	return nil
}

func completionXP(budget shared.BudgetRange) int {
	fromBudget := int(math.Floor(0.1 * float64(budget.Min)))
	if fromBudget < CompletionXPFloor {
		return CompletionXPFloor
	}
	return fromBudget
}
