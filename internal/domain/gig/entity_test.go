package gig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func postedGig() *Gig {
	return &Gig{
		ID:       "gig1",
		ClientID: "client1",
		Title:    "Fix leaking kitchen sink",
		Category: "plumbing",
		Location: shared.GeoPoint{Longitude: 76.95, Latitude: 43.25},
		Budget:   shared.BudgetRange{Min: 5000, Max: 8000},
		Status:   StatusPosted,

		MaxApplications: 3,
		ExpiresAt:       testNow.Add(48 * time.Hour),
		CreatedAt:       testNow.Add(-time.Hour),
	}
}

func pending(id, applicant string) Application {
	return Application{ID: id, ApplicantID: applicant}
}

func TestGig_CheckApply_OrderedReasons(t *testing.T) {
	g := postedGig()

	// A draft fails on status before anything else.
	draft := postedGig()
	draft.Status = StatusDraft
	draft.ExpiresAt = testNow.Add(-time.Hour)
	assert.Equal(t, "Gig is not accepting applications", draft.CheckApply("worker1", testNow).Reason)

	// Expiry outranks ownership.
	expired := postedGig()
	expired.ExpiresAt = testNow
	assert.Equal(t, "Gig has expired", expired.CheckApply(expired.ClientID, testNow).Reason)

	assert.Equal(t, "Cannot apply to own gig", g.CheckApply("client1", testNow).Reason)

	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	assert.Equal(t, "Already applied to this gig", g.CheckApply("worker1", testNow).Reason)

	check := g.CheckApply("worker2", testNow)
	assert.True(t, check.CanApply)
	assert.Empty(t, check.Reason)
}

func TestGig_CheckApply_MaxApplicationsBoundary(t *testing.T) {
	g := postedGig()
	g.MaxApplications = 2

	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	assert.True(t, g.CheckApply("worker2", testNow).CanApply)

	assert.NoError(t, g.AddApplication(pending("app2", "worker2"), testNow))
	assert.Equal(t, "Maximum applications reached", g.CheckApply("worker3", testNow).Reason)

	err := g.AddApplication(pending("app3", "worker3"), testNow)
	assert.True(t, shared.IsConflict(err))
	assert.Len(t, g.Applications, 2)
}

func TestGig_ResolveApplication_SingleAcceptance(t *testing.T) {
	g := postedGig()
	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	assert.NoError(t, g.AddApplication(pending("app2", "worker2"), testNow))
	assert.NoError(t, g.AddApplication(pending("app3", "worker3"), testNow))

	decision, err := g.ResolveApplication("app2", ApplicationAccepted, "welcome aboard", testNow)
	assert.NoError(t, err)
	assert.True(t, decision.Accepted)
	assert.ElementsMatch(t, []string{"app1", "app3"}, decision.AutoRejected)

	assert.Equal(t, StatusInProgress, g.Status)
	assert.Equal(t, "worker2", g.AssignedTo)
	assert.NotNil(t, g.AssignedAt)

	accepted := g.ApplicationByID("app2")
	assert.Equal(t, ApplicationAccepted, accepted.Status)
	assert.Equal(t, "welcome aboard", accepted.ResponseMessage)

	for _, id := range []string{"app1", "app3"} {
		app := g.ApplicationByID(id)
		assert.Equal(t, ApplicationRejected, app.Status)
		assert.Equal(t, RejectionFilledMessage, app.ResponseMessage)
		assert.NotNil(t, app.ResponseAt)
	}

	// Re-resolving an already-resolved application is a state error.
	_, err = g.ResolveApplication("app1", ApplicationAccepted, "", testNow)
	assert.True(t, shared.IsInvalidState(err))
	assert.Equal(t, "worker2", g.AssignedTo)
}

func TestGig_ResolveApplication_RejectLeavesOthersPending(t *testing.T) {
	g := postedGig()
	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	assert.NoError(t, g.AddApplication(pending("app2", "worker2"), testNow))

	decision, err := g.ResolveApplication("app1", ApplicationRejected, "looking for more experience", testNow)
	assert.NoError(t, err)
	assert.False(t, decision.Accepted)
	assert.Empty(t, decision.AutoRejected)

	assert.Equal(t, StatusPosted, g.Status)
	assert.Equal(t, ApplicationPending, g.ApplicationByID("app2").Status)
}

func TestGig_ResolveApplication_Errors(t *testing.T) {
	g := postedGig()
	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))

	_, err := g.ResolveApplication("app1", ApplicationPending, "", testNow)
	assert.True(t, shared.IsValidation(err))

	_, err = g.ResolveApplication("app1", "approved", "", testNow)
	assert.True(t, shared.IsValidation(err))

	_, err = g.ResolveApplication("ghost", ApplicationAccepted, "", testNow)
	assert.True(t, shared.IsNotFound(err))
}

func TestGig_ResolveApplication_FailedAcceptLeavesApplicationUntouched(t *testing.T) {
	g := postedGig()
	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	g.Status = StatusInProgress
	g.AssignedTo = "worker9"

	_, err := g.ResolveApplication("app1", ApplicationAccepted, "", testNow)
	assert.True(t, shared.IsConflict(err))

	app := g.ApplicationByID("app1")
	assert.Equal(t, ApplicationPending, app.Status)
	assert.Nil(t, app.ResponseAt)
	assert.Empty(t, app.ResponseMessage)

	done := postedGig()
	assert.NoError(t, done.AddApplication(pending("app1", "worker1"), testNow))
	done.Status = StatusCompleted

	_, err = done.ResolveApplication("app1", ApplicationAccepted, "", testNow)
	assert.True(t, shared.IsInvalidState(err))
	assert.Equal(t, ApplicationPending, done.ApplicationByID("app1").Status)
}

func TestGig_Withdraw(t *testing.T) {
	g := postedGig()
	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))

	assert.True(t, shared.IsValidation(g.Withdraw("app1", "worker2", testNow)))

	assert.NoError(t, g.Withdraw("app1", "worker1", testNow))
	assert.Equal(t, ApplicationWithdrawn, g.ApplicationByID("app1").Status)

	assert.True(t, shared.IsInvalidState(g.Withdraw("app1", "worker1", testNow)))
}

func TestGig_Lifecycle(t *testing.T) {
	g := postedGig()
	g.Status = StatusDraft

	assert.NoError(t, g.Post(testNow))
	assert.Equal(t, StatusPosted, g.Status)
	assert.True(t, shared.IsInvalidState(g.Post(testNow)))

	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	assert.NoError(t, g.Cancel(testNow))
	assert.Equal(t, StatusCancelled, g.Status)
	assert.True(t, shared.IsInvalidState(g.Cancel(testNow)))

	// Cancellation resolves the application queue.
	app := g.ApplicationByID("app1")
	assert.Equal(t, ApplicationRejected, app.Status)
	assert.Equal(t, RejectionCancelledMessage, app.ResponseMessage)
}

func TestGig_PostValidation(t *testing.T) {
	g := postedGig()
	g.Status = StatusDraft
	g.Location = shared.GeoPoint{Longitude: 200, Latitude: 43}
	assert.True(t, shared.IsValidation(g.Post(testNow)))

	g = postedGig()
	g.Status = StatusDraft
	g.ExpiresAt = testNow.Add(-time.Hour)
	assert.True(t, shared.IsValidation(g.Post(testNow)))
}

func TestGig_Complete(t *testing.T) {
	g := postedGig()
	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	_, err := g.ResolveApplication("app1", ApplicationAccepted, "", testNow)
	assert.NoError(t, err)

	reward, err := g.Complete(5, "great work", testNow.Add(24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, g.Status)
	assert.Equal(t, "worker1", reward.WorkerID)
	assert.Equal(t, 500, reward.XP) // 10% of the 5000 budget minimum
	assert.Equal(t, 5, reward.ClientRating)
	assert.NotNil(t, g.CompletedAt)

	_, err = g.Complete(5, "", testNow)
	assert.True(t, shared.IsInvalidState(err))
}

func TestGig_CompletionXPFloor(t *testing.T) {
	g := postedGig()
	g.Budget = shared.BudgetRange{Min: 800, Max: 1200}
	assert.NoError(t, g.AddApplication(pending("app1", "worker1"), testNow))
	_, err := g.ResolveApplication("app1", ApplicationAccepted, "", testNow)
	assert.NoError(t, err)

	reward, err := g.Complete(4, "", testNow)
	assert.NoError(t, err)

	// floor(0.1 * 800) = 80 is below the floor of 200.
	assert.Equal(t, CompletionXPFloor, reward.XP)
}

func TestGig_Complete_RatingRange(t *testing.T) {
	g := postedGig()
	g.Status = StatusInProgress
	g.AssignedTo = "worker1"

	_, err := g.Complete(0, "", testNow)
	assert.True(t, shared.IsValidation(err))
	_, err = g.Complete(6, "", testNow)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, StatusInProgress, g.Status)
}

func TestGig_Expire(t *testing.T) {
	g := postedGig()

	assert.True(t, shared.IsInvalidState(g.Expire(testNow)))

	assert.NoError(t, g.Expire(g.ExpiresAt.Add(time.Minute)))
	assert.Equal(t, StatusCancelled, g.Status)

	assert.True(t, shared.IsInvalidState(g.Expire(testNow)))
}
