// Package scheduler runs the engine's background jobs on gocron: the gig
// expiry sweep and the projection reconcile that rebuilds the Redis badge
// counters and the XP leaderboard from the authoritative PostgreSQL state.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/skillbridge-hub/skillbridge-engine/internal/application/command"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// EarnedCountSource aggregates per-badge earned counts from the
// authoritative store.
type EarnedCountSource interface {
	CountEarnedBadges(ctx context.Context) (map[string]int64, error)
}

// XPTotalSource lists every user's current XP from the authoritative store.
type XPTotalSource interface {
	ListXPTotals(ctx context.Context) (map[string]user.XP, error)
}

// CounterWriter overwrites a badge's earned counter.
type CounterWriter interface {
	Set(ctx context.Context, badgeID string, count int64) error
}

// Config contains configuration for the Scheduler.
type Config struct {
	// ExpireInterval is how often the gig expiry sweep runs.
	ExpireInterval time.Duration

	// ReconcileInterval is how often projections are rebuilt.
	ReconcileInterval time.Duration

	// JobTimeout bounds one job run.
	JobTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExpireInterval:    time.Minute,
		ReconcileInterval: time.Hour,
		JobTimeout:        2 * time.Minute,
	}
}

// Scheduler owns the gocron scheduler and the engine's periodic jobs.
type Scheduler struct {
	config      Config
	sched       gocron.Scheduler
	expirer     *command.ExpireGigsHandler
	counts      EarnedCountSource
	totals      XPTotalSource
	counter     CounterWriter
	leaderboard user.Leaderboard
	logger      *slog.Logger
}

// New creates a Scheduler. The reconcile job is skipped when any of its
// dependencies is nil, so a Redis-less deployment still gets the expiry sweep.
func New(config Config, expirer *command.ExpireGigsHandler, counts EarnedCountSource,
	totals XPTotalSource, counter CounterWriter, leaderboard user.Leaderboard) (*Scheduler, error) {
	if expirer == nil {
		return nil, errors.New("scheduler: expire handler is required")
	}
	if config.ExpireInterval <= 0 {
		config.ExpireInterval = time.Minute
	}
	if config.ReconcileInterval <= 0 {
		config.ReconcileInterval = time.Hour
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 2 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		config:      config,
		sched:       sched,
		expirer:     expirer,
		counts:      counts,
		totals:      totals,
		counter:     counter,
		leaderboard: leaderboard,
		logger:      config.Logger,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.config.ExpireInterval),
		gocron.NewTask(s.runExpireSweep),
	)
	if err != nil {
		return err
	}

	if s.counts != nil && s.counter != nil && s.totals != nil && s.leaderboard != nil {
		_, err = s.sched.NewJob(
			gocron.DurationJob(s.config.ReconcileInterval),
			gocron.NewTask(s.runReconcile),
		)
		if err != nil {
			return err
		}
	}

	s.sched.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) runExpireSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	if _, err := s.expirer.Handle(ctx); err != nil {
		s.logger.Error("gig expiry sweep failed", "error", err)
	}
}

// runReconcile rebuilds the Redis projections from PostgreSQL. The badge
// saga's best-effort writes can miss when Redis is down; this sweep converges
// the counters and the leaderboard back to the authoritative state.
func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	counts, err := s.counts.CountEarnedBadges(ctx)
	if err != nil {
		s.logger.Error("badge count aggregation failed", "error", err)
	} else {
		for badgeID, count := range counts {
			if err := s.counter.Set(ctx, badgeID, count); err != nil {
				s.logger.Warn("badge counter write failed", "badge_id", badgeID, "error", err)
			}
		}
	}

	totals, err := s.totals.ListXPTotals(ctx)
	if err != nil {
		s.logger.Error("xp total listing failed", "error", err)
		return
	}
	for userID, xp := range totals {
		if err := s.leaderboard.UpdateScore(ctx, userID, xp); err != nil {
			s.logger.Warn("leaderboard rebuild write failed", "user_id", userID, "error", err)
		}
	}
}
