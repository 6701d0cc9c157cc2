package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-checkin/internal/config"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/internal/repository/postgres"
	redisRepo "github.com/jwalitptl/clinic-checkin/internal/repository/redis"
	catalogService "github.com/jwalitptl/clinic-checkin/internal/service/catalog"
	checkinService "github.com/jwalitptl/clinic-checkin/internal/service/checkin"
	eventService "github.com/jwalitptl/clinic-checkin/internal/service/event"
	"github.com/jwalitptl/clinic-checkin/internal/service/sequence"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-checkin/pkg/metrics"
)

// env holds what every subcommand needs.
type env struct {
	cfg     *config.Config
	logger  *logger.Logger
	db      *sqlx.DB
	repos   *postgres.Repositories
	metrics *metrics.Metrics
	loc     *time.Location
	redis   *goredis.Client
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = appLogger.ZL

	loc, err := cfg.Clinic.Location()
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &env{
		cfg:     cfg,
		logger:  appLogger.WithFields(map[string]interface{}{"component": "worker"}),
		db:      db,
		repos:   postgres.NewRepositories(db),
		metrics: metrics.NewMetrics("clinic", "worker", nil),
		loc:     loc,
	}, nil
}

func (e *env) close() {
	if e.redis != nil {
		e.redis.Close()
	}
	e.db.Close()
}

// redisClient connects once and is shared by the counter store and broker.
func (e *env) redisClient(ctx context.Context) (*goredis.Client, error) {
	if e.redis != nil {
		return e.redis, nil
	}
	client, err := redis.NewClient(ctx, e.cfg.Redis.ToBrokerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	e.redis = client
	return client, nil
}

func (e *env) counters(ctx context.Context) (repository.CounterRepository, error) {
	if e.cfg.Sequence.Backend != "redis" {
		return e.repos.Counters, nil
	}
	client, err := e.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	return redisRepo.NewCounterRepository(client), nil
}

func (e *env) allocator(ctx context.Context) (*sequence.Allocator, error) {
	counters, err := e.counters(ctx)
	if err != nil {
		return nil, err
	}
	return sequence.NewAllocator(counters, e.logger, e.metrics), nil
}

func (e *env) scheduler(ctx context.Context) (*checkinService.Scheduler, error) {
	allocator, err := e.allocator(ctx)
	if err != nil {
		return nil, err
	}
	return checkinService.NewScheduler(
		e.repos.CheckIns,
		catalogService.NewService(e.repos.Schedules, e.cfg.Clinic.CatalogCacheTTL, e.logger, e.metrics),
		allocator,
		eventService.NewService(e.repos.Outbox, e.logger),
		nil,
		checkinService.Config{Location: e.loc, SessionTTL: e.cfg.Clinic.SessionTTL},
		e.logger,
		e.metrics,
	), nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "checkin-worker",
		Short:         "Background jobs for clinic check-in",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newSweepCommand(), newSeedCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("worker failed")
		os.Exit(1)
	}
}
