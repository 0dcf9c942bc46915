package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/queenscorner/queenscorner-erp/internal/app"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/invoices"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/platform/db"
	"github.com/queenscorner/queenscorner-erp/internal/platform/idempotency"
	"github.com/queenscorner/queenscorner-erp/jobs"
	"github.com/queenscorner/queenscorner-erp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	quotationsRepo := quotations.NewRepository(pool)
	invoicesRepo := invoices.NewRepository(pool)

	composer := report.NewComposer(quotationsRepo, invoicesRepo)
	pdfClient := report.NewClient(cfg.GotenbergURL)
	pdfStore := report.NewFileStore(cfg.ReportDir)
	sender := jobs.NewLogSender(logger)

	processor := jobs.NewProcessor(logger, sender, composer, pdfClient, pdfStore)

	cleanupJob := jobs.NewCleanupJob(idempotency.NewStore(pool), 72*time.Hour, logger)
	handlers := append(processor.Handlers(), jobs.TaskHandler{
		Type:    jobs.TaskTypeCleanupKeys,
		Handler: cleanupJob.Handle,
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewCleanupKeysTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
