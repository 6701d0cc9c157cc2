package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-checkin/internal/config"
	catalogHandler "github.com/jwalitptl/clinic-checkin/internal/handler/catalog"
	checkinHandler "github.com/jwalitptl/clinic-checkin/internal/handler/checkin"
	"github.com/jwalitptl/clinic-checkin/internal/handler/health"
	medicalHandler "github.com/jwalitptl/clinic-checkin/internal/handler/medical"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/internal/repository/postgres"
	redisRepo "github.com/jwalitptl/clinic-checkin/internal/repository/redis"
	"github.com/jwalitptl/clinic-checkin/internal/router"
	catalogService "github.com/jwalitptl/clinic-checkin/internal/service/catalog"
	checkinService "github.com/jwalitptl/clinic-checkin/internal/service/checkin"
	eventService "github.com/jwalitptl/clinic-checkin/internal/service/event"
	medicalService "github.com/jwalitptl/clinic-checkin/internal/service/medical"
	"github.com/jwalitptl/clinic-checkin/internal/service/sequence"
	"github.com/jwalitptl/clinic-checkin/pkg/auth"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-checkin/pkg/metrics"
)

// redisPinger adapts the go-redis client to health.Pinger.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = appLogger.ZL

	loc, err := cfg.Clinic.Location()
	if err != nil {
		appLogger.Fatal(err, "invalid clinic timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(ctx, db); err != nil {
		appLogger.Fatal(err, "failed to apply schema")
	}
	cancel()

	repos := postgres.NewRepositories(db)
	m := metrics.NewMetrics("clinic", "checkin", nil)

	checks := map[string]health.Pinger{"postgres": db}

	var counters repository.CounterRepository = repos.Counters
	if cfg.Sequence.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
		cancel()
		if err != nil {
			appLogger.Fatal(err, "failed to connect to redis")
		}
		defer client.Close()
		counters = redisRepo.NewCounterRepository(client)
		checks["redis"] = redisPinger{client: client}
	}

	allocator := sequence.NewAllocator(counters, appLogger, m)
	catalog := catalogService.NewService(repos.Schedules, cfg.Clinic.CatalogCacheTTL, appLogger, m)
	events := eventService.NewService(repos.Outbox, appLogger)

	var (
		verifier checkinService.TokenVerifier
		issuer   checkinHandler.TokenIssuer
	)
	if cfg.QRToken.Secret != "" {
		qr, err := auth.NewQRTokenService(cfg.QRToken.Secret, cfg.QRToken.Issuer, cfg.QRToken.MaxAge)
		if err != nil {
			appLogger.Fatal(err, "invalid qr token settings")
		}
		verifier, issuer = qr, qr
	} else {
		appLogger.Warn("QR token secret not set, token check-in disabled")
	}

	scheduler := checkinService.NewScheduler(
		repos.CheckIns,
		catalog,
		allocator,
		events,
		verifier,
		checkinService.Config{Location: loc, SessionTTL: cfg.Clinic.SessionTTL},
		appLogger,
		m,
	)
	medical := medicalService.NewService(repos.MedicalRecords, repos.Prescriptions, allocator, loc, appLogger)

	clock := checkinService.SystemClock{}
	r := router.NewRouter(
		checkinHandler.NewHandler(scheduler, issuer, clock),
		catalogHandler.NewHandler(catalog),
		medicalHandler.NewHandler(medical, clock),
		health.NewHandler(checks),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			MetricsPrefix:    "checkin_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("Starting API server", "port", cfg.Server.Port, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
	}
}
