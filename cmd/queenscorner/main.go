package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/queenscorner/queenscorner-erp/internal/app"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/clients"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/invoices"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/payments"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/stats"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/workorders"
	"github.com/queenscorner/queenscorner-erp/internal/observability"
	"github.com/queenscorner/queenscorner-erp/internal/platform/cache"
	"github.com/queenscorner/queenscorner-erp/internal/platform/codes"
	"github.com/queenscorner/queenscorner-erp/internal/platform/db"
	"github.com/queenscorner/queenscorner-erp/internal/platform/idempotency"
	"github.com/queenscorner/queenscorner-erp/jobs"
	"github.com/queenscorner/queenscorner-erp/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, stats cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("create queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	notifier := jobs.NewQueueNotifier(queueClient, logger)
	renderer := jobs.NewQueueRenderer(queueClient, logger)
	codeGen := codes.NewGenerator(dbpool)
	clock := shared.SystemClock{}

	clientsRepo := clients.NewRepository(dbpool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService)

	quotationsRepo := quotations.NewRepository(dbpool)
	quotationsService := quotations.NewService(quotationsRepo, clientsService, codeGen, clock, notifier, renderer, logger)
	if redisClient != nil {
		quotationsService.UseListCache(cache.NewVersioned(redisClient, "commerce:quotations", cfg.CacheTTL))
	}
	quotationsHandler := quotations.NewHandler(logger, quotationsService)

	dealsRepo := deals.NewRepository(dbpool)
	dealsService := deals.NewService(dealsRepo, quotationsService, clientsService, codeGen, clock, notifier, logger)
	dealsHandler := deals.NewHandler(logger, dealsService)

	workOrdersRepo := workorders.NewRepository(dbpool)
	workOrdersService := workorders.NewService(workOrdersRepo, dealsService, codeGen, clock, notifier, logger)
	workOrdersHandler := workorders.NewHandler(logger, workOrdersService)

	invoicesRepo := invoices.NewRepository(dbpool)
	invoicesService := invoices.NewService(invoicesRepo, dealsService, quotationsService, codeGen, clock, notifier, renderer, logger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService)

	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(paymentsRepo, dealsService, clock, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	statsRepo := stats.NewRepository(dbpool)
	statsCache := stats.NewCache(redisClient, cfg.CacheTTL)
	statsService := stats.NewService(statsRepo, statsCache)
	statsHandler := stats.NewHandler(logger, statsService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportComposer := report.NewComposer(quotationsService, invoicesService)
	reportHandler := report.NewHandler(reportClient, reportComposer, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()
	idempotencyStore := idempotency.NewStore(dbpool)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		ClientsHandler:    clientsHandler,
		QuotationsHandler: quotationsHandler,
		DealsHandler:      dealsHandler,
		WorkOrdersHandler: workOrdersHandler,
		InvoicesHandler:   invoicesHandler,
		PaymentsHandler:   paymentsHandler,
		StatsHandler:      statsHandler,
		ReportHandler:     reportHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
		Idempotency:       idempotencyStore,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
}
