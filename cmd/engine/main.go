// Package main is the entry point of the SkillBridge engine: the progression,
// badge, course and gig marketplace backend.
//
// The layout follows Clean Architecture:
//   - Domain: business rules with no external dependencies
//   - Application: use-case orchestration (commands, queries, sagas)
//   - Infrastructure: PostgreSQL, Redis, event bus, scheduler
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/skillbridge-hub/skillbridge-engine/config"
	"github.com/skillbridge-hub/skillbridge-engine/internal/application"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/badge"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
	"github.com/skillbridge-hub/skillbridge-engine/internal/infrastructure/messaging"
	"github.com/skillbridge-hub/skillbridge-engine/internal/infrastructure/persistence/postgres"
	redisstore "github.com/skillbridge-hub/skillbridge-engine/internal/infrastructure/persistence/redis"
	"github.com/skillbridge-hub/skillbridge-engine/internal/infrastructure/scheduler"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("starting engine",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"instance_id", cfg.App.InstanceID,
	)

	// ── Storage ──────────────────────────────────────────────────────────────

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database migrated")

	userRepo := postgres.NewUserRepository(conn)
	courseRepo := postgres.NewCourseRepository(conn)
	progressRepo := postgres.NewCourseProgressRepository(conn)
	badgeRepo := postgres.NewBadgeRepository(conn)
	gigRepo := postgres.NewGigRepository(conn)

	// ── Redis and event bus ──────────────────────────────────────────────────

	var (
		leaderboard user.Leaderboard
		counter     badge.EarnedCounter
		bus         shared.EventBus
		reconciler  *redisstore.EarnedCounter
		scores      scheduler.XPTotalSource
		counts      scheduler.EarnedCountSource
	)

	localBusConfig := messaging.InMemoryEventBusConfig{
		WorkerPoolSize: cfg.EventBus.WorkerPoolSize,
		Logger:         logger,
	}

	if cfg.Redis.Disabled {
		logger.Warn("redis disabled: no leaderboard, no earned counters, local events only")
		bus = messaging.NewInMemoryEventBus(localBusConfig)
	} else {
		client, err := redisstore.NewClient(ctx, redisstore.Config{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		leaderboard = redisstore.NewLeaderboard(client)
		earnedCounter := redisstore.NewEarnedCounter(client)
		counter = earnedCounter
		reconciler = earnedCounter
		scores = userRepo
		counts = userRepo

		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         client,
			ChannelName:    cfg.EventBus.ChannelName,
			InstanceID:     cfg.App.InstanceID,
			LocalBusConfig: localBusConfig,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		bus = redisBus
	}
	defer func() {
		if closer, ok := bus.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("event bus close failed", "error", err)
			}
		}
	}()

	// ── Application layer ────────────────────────────────────────────────────

	app, err := application.New(application.Dependencies{
		UserRepo:     userRepo,
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		BadgeRepo:    badgeRepo,
		GigRepo:      gigRepo,
		Leaderboard:  leaderboard,
		Counter:      counter,
		Bus:          bus,
		Logger:       logger,
	}, application.Config{
		ExpireBatchSize:      cfg.Scheduler.ExpireBatchSize,
		BadgeCheckTimeout:    cfg.Engine.BadgeCheckTimeout,
		MaxBadgeAwardsPerRun: cfg.Engine.MaxBadgeAwardsPerRun,
	})
	if err != nil {
		return err
	}

	// ── Scheduler ────────────────────────────────────────────────────────────

	if cfg.Scheduler.Enabled {
		var counterWriter scheduler.CounterWriter
		if reconciler != nil {
			counterWriter = reconciler
		}
		sched, err := scheduler.New(scheduler.Config{
			ExpireInterval:    cfg.Scheduler.ExpireInterval,
			ReconcileInterval: cfg.Scheduler.ReconcileInterval,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			Logger:            logger,
		}, app.ExpireGigs, counts, scores, counterWriter, leaderboard)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Error("scheduler shutdown failed", "error", err)
			}
		}()
		logger.Info("scheduler started",
			"expire_interval", cfg.Scheduler.ExpireInterval,
			"reconcile_interval", cfg.Scheduler.ReconcileInterval,
		)
	}

	// The command and query handlers above are the engine's surface; the
	// transport that exposes them (HTTP, gRPC, queue consumers) is deployed
	// separately and out of scope here.

	logger.Info("engine ready")

	// ── Shutdown ─────────────────────────────────────────────────────────────

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Observability.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("app", cfg.App.Name)
}
