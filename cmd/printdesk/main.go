package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/cmd/printdesk/cli"
	"github.com/printdesk/printdesk/internal/app"
	"github.com/printdesk/printdesk/internal/platform/cache"
	"github.com/printdesk/printdesk/internal/platform/db"
	"github.com/printdesk/printdesk/internal/platform/events"
	"github.com/printdesk/printdesk/internal/sales/orders"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("printdesk stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var audit shared.AuditTrail
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, db.Options{
			DSN:             cfg.PGDSN,
			MaxConns:        cfg.PGMaxConns,
			ApplicationName: "printdesk",
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		auditLogger := shared.NewAuditLogger(pool)
		if err := auditLogger.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("audit schema: %w", err)
		}
		audit = auditLogger
		logger.Info("audit trail persisted to postgres")
	}

	var orderEvents orders.EventPublisher
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(brokers, cfg.OrderEventsTopic, "printdesk", logger)
		if err != nil {
			return fmt.Errorf("init order events: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("order events close", slog.Any("error", err))
			}
		}()
		orderEvents = publisher
		logger.Info("order events published to kafka", slog.String("topic", cfg.OrderEventsTopic))
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	queueClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	container, err := app.NewContainer(cfg, logger, app.Deps{
		Redis:     redisClient,
		Audit:     audit,
		Queue:     queueClient,
		Inspector: inspector,
		Events:    orderEvents,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := container.Cache.ListenForInvalidation(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("dashboard invalidation listener stopped", slog.Any("error", err))
		}
	}()

	if cfg.SeedDemo {
		if err := container.Seed(ctx); err != nil {
			return err
		}
	}

	// Records live in process memory, so the worker runs here rather than in a
	// separate binary.
	worker, err := jobs.NewWorker(container.WorkerConfig(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.WorkerConcurrency,
	}))
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker stopped", slog.Any("error", err))
			stop()
		}
	}()

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      container.Router(),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("order_sync", cfg.OrderSyncMode),
			slog.String("currency", container.Money.Code()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}

func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	ops := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer ops.Close()

	if len(args) == 0 {
		return errors.New("usage: printdesk jobs <trigger NAME|stats|scheduled>")
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: printdesk jobs trigger NAME [ORDER_ID JOB_TYPE JOB_STATUS]")
		}
		info, err := ops.Trigger(ctx, args[1], args[2:]...)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s (%s) on %s\n", info.Type, info.ID, info.Queue)
	case "stats":
		queues, err := ops.InspectQueue(ctx)
		if err != nil {
			return err
		}
		for _, q := range queues {
			fmt.Printf("queue=%s paused=%t pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				q.Queue, q.Paused, q.Pending, q.Active, q.Scheduled, q.Retry, q.Archived)
		}
	case "scheduled":
		tasks, err := ops.ListScheduled(ctx, 20)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%s\t%s\t%s\t%s\n", t.ID, t.Queue, t.Type, t.NextProcessAt.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("unknown jobs command %q", args[0])
	}
	return nil
}
