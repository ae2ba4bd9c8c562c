package command

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────────────────────

type fakeGigRepo struct {
	gigs map[string]*gig.Gig
}

func newFakeGigRepo(gigs ...*gig.Gig) *fakeGigRepo {
	r := &fakeGigRepo{gigs: make(map[string]*gig.Gig)}
	for _, g := range gigs {
		r.gigs[g.ID] = g
	}
	return r
}

func (r *fakeGigRepo) Create(_ context.Context, g *gig.Gig) error {
	r.gigs[g.ID] = g
	return nil
}

func (r *fakeGigRepo) GetByID(_ context.Context, id string) (*gig.Gig, error) {
	g, ok := r.gigs[id]
	if !ok {
		return nil, shared.NewDomainError("gig", "GetByID", shared.ErrNotFound, "no gig "+id)
	}
	return g, nil
}

func (r *fakeGigRepo) Update(_ context.Context, g *gig.Gig) error {
	if _, ok := r.gigs[g.ID]; !ok {
		return shared.NewDomainError("gig", "Update", shared.ErrNotFound, "no gig "+g.ID)
	}
	r.gigs[g.ID] = g
	return nil
}

func (r *fakeGigRepo) FindNearby(context.Context, shared.GeoPoint, float64) ([]*gig.Gig, error) {
	return nil, nil
}

func (r *fakeGigRepo) ListExpired(context.Context, int) ([]*gig.Gig, error) {
	return nil, nil
}

func (r *fakeGigRepo) ListByClient(context.Context, string) ([]*gig.Gig, error) {
	return nil, nil
}

// failingUserRepo makes every XP grant fail after the gig write succeeds.
type failingUserRepo struct{}

func (failingUserRepo) Create(context.Context, *user.ProgressState) error {
	return errors.New("storage offline")
}

func (failingUserRepo) GetByID(context.Context, string) (*user.ProgressState, error) {
	return nil, shared.NewDomainError("progression", "GetByID",
		shared.ErrNotFound, "no state")
}

func (failingUserRepo) Update(context.Context, *user.ProgressState) error {
	return errors.New("storage offline")
}

func (failingUserRepo) AppendXPHistory(context.Context, user.XPHistoryEntry) error {
	return nil
}

func (failingUserRepo) GetXPHistory(context.Context, string, int) ([]user.XPHistoryEntry, error) {
	return nil, nil
}

func acceptableGig(id string) *gig.Gig {
	now := time.Now().UTC()
	g := &gig.Gig{
		ID:              id,
		ClientID:        "client1",
		Title:           "Assemble bookshelf",
		Category:        "handywork",
		Location:        shared.GeoPoint{Longitude: 76.95, Latitude: 43.25},
		Budget:          shared.BudgetRange{Min: 5000, Max: 8000},
		Status:          gig.StatusPosted,
		MaxApplications: 5,
		ExpiresAt:       now.Add(24 * time.Hour),
		CreatedAt:       now,
	}
	return g
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdateApplicationStatus_AcceptanceXPFailureSurfaces(t *testing.T) {
	g := acceptableGig("gig1")
	require.NoError(t, g.AddApplication(gig.Application{ID: "app1", ApplicantID: "worker1"}, time.Now().UTC()))
	gigs := newFakeGigRepo(g)

	xp := NewAwardXPHandler(failingUserRepo{}, nil, nil, NewUserLocks(), slog.Default())
	handler := NewUpdateApplicationStatusHandler(gigs, xp, nil, slog.Default())

	result, err := handler.Handle(context.Background(), UpdateApplicationStatusCommand{
		GigID:         "gig1",
		ApplicationID: "app1",
		NewStatus:     gig.ApplicationAccepted,
	})
	require.NoError(t, err)

	// The acceptance itself is durable; the lost grant is reported.
	assert.Equal(t, gig.StatusInProgress, result.GigStatus)
	assert.Equal(t, "worker1", result.AssignedTo)
	assert.True(t, result.RewardsPending)

	stored, _ := gigs.GetByID(context.Background(), "gig1")
	assert.Equal(t, "worker1", stored.AssignedTo)
}

func TestUpdateApplicationStatus_AcceptanceGrantsXP(t *testing.T) {
	g := acceptableGig("gig1")
	require.NoError(t, g.AddApplication(gig.Application{ID: "app1", ApplicantID: "worker1"}, time.Now().UTC()))
	gigs := newFakeGigRepo(g)

	users := newFakeUserRepo()
	xp := NewAwardXPHandler(users, nil, nil, NewUserLocks(), slog.Default())
	handler := NewUpdateApplicationStatusHandler(gigs, xp, nil, slog.Default())

	result, err := handler.Handle(context.Background(), UpdateApplicationStatusCommand{
		GigID:         "gig1",
		ApplicationID: "app1",
		NewStatus:     gig.ApplicationAccepted,
	})
	require.NoError(t, err)
	assert.False(t, result.RewardsPending)

	stored, err := users.GetByID(context.Background(), "worker1")
	require.NoError(t, err)
	assert.Equal(t, user.XP(gig.AcceptanceXP), stored.CurrentXP)
}

func TestCompleteGig_RewardFailureSurfaces(t *testing.T) {
	g := acceptableGig("gig1")
	require.NoError(t, g.AddApplication(gig.Application{ID: "app1", ApplicantID: "worker1"}, time.Now().UTC()))
	_, err := g.ResolveApplication("app1", gig.ApplicationAccepted, "", time.Now().UTC())
	require.NoError(t, err)
	gigs := newFakeGigRepo(g)

	xp := NewAwardXPHandler(failingUserRepo{}, nil, nil, NewUserLocks(), slog.Default())
	handler := NewCompleteGigHandler(gigs, xp, nil, slog.Default())

	result, err := handler.Handle(context.Background(), CompleteGigCommand{
		GigID:        "gig1",
		ClientRating: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "worker1", result.WorkerID)
	assert.Zero(t, result.XPAwarded)
	assert.True(t, result.RewardsPending)

	stored, _ := gigs.GetByID(context.Background(), "gig1")
	assert.Equal(t, gig.StatusCompleted, stored.Status)
}
