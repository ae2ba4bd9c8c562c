// Package application wires the engine's use cases into one surface. Commands
// mutate state, queries read it, the badge saga reacts to domain events.
// Transports (HTTP, gRPC, queue consumers) call through App and stay out of
// the domain.
package application

import (
	"log/slog"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/application/command"
	"github.com/skillbridge-hub/skillbridge-engine/internal/application/eventhandler"
	"github.com/skillbridge-hub/skillbridge-engine/internal/application/query"
	"github.com/skillbridge-hub/skillbridge-engine/internal/application/saga"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/badge"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/course"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/gig"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// Dependencies carries everything App needs from the infrastructure layer.
// Leaderboard and EarnedCounter may be nil in a Redis-less deployment; the
// handlers degrade to Postgres-only behavior.
type Dependencies struct {
	UserRepo     user.Repository
	CourseRepo   course.Repository
	ProgressRepo course.ProgressRepository
	BadgeRepo    badge.Repository
	GigRepo      gig.Repository

	Leaderboard user.Leaderboard
	Counter     badge.EarnedCounter

	Bus    shared.EventBus
	Logger *slog.Logger
}

// Config holds application tunables.
type Config struct {
	// ExpireBatchSize caps gigs closed per expiry sweep.
	ExpireBatchSize int

	// BadgeCheckTimeout bounds one asynchronous badge re-evaluation.
	BadgeCheckTimeout time.Duration

	// MaxBadgeAwardsPerRun caps grants in one re-evaluation.
	MaxBadgeAwardsPerRun int
}

// App bundles every command and query handler of the engine.
type App struct {
	// Commands
	AwardXP              *command.AwardXPHandler
	EnrollCourse         *command.EnrollCourseHandler
	AbandonCourse        *command.AbandonCourseHandler
	UpdateModuleProgress *command.UpdateModuleProgressHandler
	RecordQuizAttempt    *command.RecordQuizAttemptHandler
	CreateGig            *command.CreateGigHandler
	CancelGig            *command.CancelGigHandler
	ApplyToGig           *command.ApplyToGigHandler
	UpdateApplication    *command.UpdateApplicationStatusHandler
	WithdrawApplication  *command.WithdrawApplicationHandler
	CompleteGig          *command.CompleteGigHandler
	ExpireGigs           *command.ExpireGigsHandler

	// Queries
	GetProgressOverview *query.GetProgressOverviewHandler
	RecommendBadges     *query.RecommendBadgesHandler
	GetLeaderboard      *query.GetLeaderboardHandler
	FindNearbyGigs      *query.FindNearbyGigsHandler
	CheckApply          *query.CheckApplyHandler

	// Event-driven
	BadgeFlow   *saga.BadgeAwardFlowSaga
	Reevaluator *eventhandler.BadgeReevaluator
}

// New builds the application layer and subscribes the badge re-evaluator to
// the event bus.
func New(deps Dependencies, cfg Config) (*App, error) {
	locks := command.NewUserLocks()

	awardXP := command.NewAwardXPHandler(deps.UserRepo, deps.Leaderboard, deps.Bus, locks, deps.Logger)

	badgeFlow := saga.NewBadgeAwardFlowSaga(
		deps.UserRepo, deps.BadgeRepo, deps.Counter, deps.Leaderboard, deps.Bus, locks, deps.Logger,
		saga.BadgeAwardFlowConfig{MaxAwardsPerRun: cfg.MaxBadgeAwardsPerRun},
	)

	reevaluator := eventhandler.NewBadgeReevaluator(badgeFlow, cfg.BadgeCheckTimeout, deps.Logger)
	if err := reevaluator.Register(deps.Bus); err != nil {
		return nil, err
	}

	return &App{
		AwardXP:              awardXP,
		EnrollCourse:         command.NewEnrollCourseHandler(deps.CourseRepo, deps.ProgressRepo),
		AbandonCourse:        command.NewAbandonCourseHandler(deps.ProgressRepo),
		UpdateModuleProgress: command.NewUpdateModuleProgressHandler(deps.CourseRepo, deps.ProgressRepo, awardXP, deps.Bus, deps.Logger),
		RecordQuizAttempt:    command.NewRecordQuizAttemptHandler(deps.CourseRepo, deps.ProgressRepo, awardXP, deps.Bus, deps.Logger),
		CreateGig:            command.NewCreateGigHandler(deps.GigRepo),
		CancelGig:            command.NewCancelGigHandler(deps.GigRepo),
		ApplyToGig:           command.NewApplyToGigHandler(deps.GigRepo),
		UpdateApplication:    command.NewUpdateApplicationStatusHandler(deps.GigRepo, awardXP, deps.Bus, deps.Logger),
		WithdrawApplication:  command.NewWithdrawApplicationHandler(deps.GigRepo, deps.Bus, deps.Logger),
		CompleteGig:          command.NewCompleteGigHandler(deps.GigRepo, awardXP, deps.Bus, deps.Logger),
		ExpireGigs:           command.NewExpireGigsHandler(deps.GigRepo, cfg.ExpireBatchSize, deps.Logger),

		GetProgressOverview: query.NewGetProgressOverviewHandler(deps.UserRepo, deps.ProgressRepo),
		RecommendBadges:     query.NewRecommendBadgesHandler(deps.UserRepo, deps.BadgeRepo),
		GetLeaderboard:      query.NewGetLeaderboardHandler(deps.Leaderboard),
		FindNearbyGigs:      query.NewFindNearbyGigsHandler(deps.GigRepo),
		CheckApply:          query.NewCheckApplyHandler(deps.GigRepo),

		BadgeFlow:   badgeFlow,
		Reevaluator: reevaluator,
	}, nil
}
