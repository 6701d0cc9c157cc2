package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-checkin/internal/email"
	"github.com/jwalitptl/clinic-checkin/internal/handler/health"
	"github.com/jwalitptl/clinic-checkin/internal/service/notification"
	internalWorker "github.com/jwalitptl/clinic-checkin/internal/worker"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging/kafka"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging/memory"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-checkin/pkg/worker"
)

func newRunCommand() *cobra.Command {
	var healthAddr string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Relay outbox events, notify doctors and expire stale sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, healthAddr)
		},
	}
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "address for health and metrics endpoints")
	return cmd
}

func (e *env) broker(ctx context.Context) (messaging.Broker, error) {
	zl := &e.logger.ZL
	switch e.cfg.Broker {
	case "kafka":
		return kafka.NewKafkaBroker(e.cfg.Kafka.ToBrokerConfig(), zl)
	case "memory":
		return memory.NewBroker(), nil
	default:
		client, err := e.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redis.NewRedisBrokerFromClient(client, zl), nil
	}
}

func (e *env) emailService() email.Service {
	if !e.cfg.SMTP.Enabled() {
		e.logger.Warn("SMTP not configured, doctor notifications are only logged")
		return email.NewLogService(e.logger)
	}
	return email.NewSMTPService(email.SMTPConfig{
		Host:     e.cfg.SMTP.Host,
		Port:     e.cfg.SMTP.Port,
		Username: e.cfg.SMTP.Username,
		Password: e.cfg.SMTP.Password,
		From:     e.cfg.SMTP.From,
	})
}

func run(ctx context.Context, healthAddr string) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	broker, err := e.broker(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s broker: %w", e.cfg.Broker, err)
	}
	defer broker.Close()

	processor, err := worker.NewOutboxProcessor(
		e.repos.Outbox,
		broker,
		e.cfg.Outbox.ToWorkerConfig(),
		e.logger,
		e.metrics,
	)
	if err != nil {
		return err
	}

	dispatcher := notification.NewDispatcher(
		messaging.NewBrokerAdapter(broker, e.logger),
		e.emailService(),
		e.cfg.SMTP.DoctorInbox,
		e.logger,
	)
	if err := dispatcher.Start(ctx); err != nil {
		return err
	}

	scheduler, err := e.scheduler(ctx)
	if err != nil {
		return err
	}
	reaper := internalWorker.NewSessionReaper(scheduler, e.cfg.Reaper.Interval, e.logger)

	srv := healthServer(e, healthAddr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Error(err, "Health server failed")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		reaper.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanupLoop(ctx, e, processor)
	}()

	e.logger.Info("Worker started", "broker", e.cfg.Broker, "sequence_backend", e.cfg.Sequence.Backend)
	<-ctx.Done()
	e.logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	wg.Wait()
	return nil
}

// cleanupLoop prunes processed outbox rows once an hour.
func cleanupLoop(ctx context.Context, e *env, processor *worker.OutboxProcessor) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := processor.Cleanup(ctx, e.cfg.Outbox.Retention); err != nil {
				e.logger.Error(err, "Outbox cleanup failed")
			}
		}
	}
}

func healthServer(e *env, addr string) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	checks := map[string]health.Pinger{"postgres": e.db}
	health.NewHandler(checks).RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return &http.Server{Addr: addr, Handler: engine, ReadHeaderTimeout: 5 * time.Second}
}
