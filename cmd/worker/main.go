package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/app"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/audit"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/baseline"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/platform/db"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/snapshot"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/jobs"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	source := snapshot.NewRepository(pool, logger)
	engine := audit.NewEngine(logger, source, baseline.Default())
	scanJob := jobs.NewCapabilityScanJob(engine, logger)

	scanTask, err := jobs.NewCapabilityScanTask(jobs.CapabilityScanPayload{WarnOnCustomRoles: true})
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCapabilityScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ScanCron, Task: scanTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("scan_cron", cfg.ScanCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
