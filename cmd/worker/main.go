package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/planwise-crm/planwise-crm/internal/accessrules"
	"github.com/planwise-crm/planwise-crm/internal/app"
	"github.com/planwise-crm/planwise-crm/internal/platform/cache"
	"github.com/planwise-crm/planwise-crm/internal/platform/db"
	"github.com/planwise-crm/planwise-crm/internal/shared"
	"github.com/planwise-crm/planwise-crm/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, access rule cache disabled", slog.Any("error", err))
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

	ruleService := accessrules.NewService(accessrules.NewRepository(pool), redisClient, cfg.AccessRuleCacheTTL, logger)
	auditLogger := shared.NewAuditLogger(pool)

	pruneTask, err := jobs.NewAuditPruneTask(jobs.AuditPrunePayload{RetentionDays: 90})
	if err != nil {
		logger.Error("build audit prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAccessRuleSeed, Handler: &jobs.AccessRuleSeedHandler{Rules: ruleService, Logger: logger}},
			{Type: jobs.TaskAuditPrune, Handler: &jobs.AuditPruneHandler{Audit: auditLogger, Logger: logger}},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@hourly", Task: jobs.NewAccessRuleSeedTask()},
			{Spec: "@daily", Task: pruneTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}
