package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/planwise-crm/planwise-crm/internal/accessrules"
	"github.com/planwise-crm/planwise-crm/internal/app"
	"github.com/planwise-crm/planwise-crm/internal/authn"
	"github.com/planwise-crm/planwise-crm/internal/authz"
	"github.com/planwise-crm/planwise-crm/internal/invoices"
	"github.com/planwise-crm/planwise-crm/internal/leads"
	"github.com/planwise-crm/planwise-crm/internal/observability"
	"github.com/planwise-crm/planwise-crm/internal/platform/cache"
	"github.com/planwise-crm/planwise-crm/internal/platform/db"
	"github.com/planwise-crm/planwise-crm/internal/shared"
	"github.com/planwise-crm/planwise-crm/internal/users"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	tokens, err := authn.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}
	gate := authn.Gate{Tokens: tokens, Logger: logger}

	userService := users.NewService(users.NewRepository(pool))
	authHandler := authn.NewHandler(logger, userService, tokens)

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	policy := authz.NewDefaultPolicy()
	authzMiddleware := authz.Middleware{Policy: policy, Logger: logger, Recorder: metrics}

	ruleService := accessrules.NewService(accessrules.NewRepository(pool), redisClient, cfg.AccessRuleCacheTTL, logger)
	if err := ruleService.SeedDefaults(ctx); err != nil {
		logger.Error("seed access rules", slog.Any("error", err))
		os.Exit(1)
	}
	dynamicMiddleware := authz.DynamicMiddleware{
		Rules:    ruleService,
		Logger:   logger,
		Recorder: metrics,
		FailOpen: cfg.AuthzDynamicFailOpen,
	}

	leadsHandler := leads.NewHandler(logger, leads.NewService(leads.NewRepository(pool)), authzMiddleware)
	invoicesHandler := invoices.NewHandler(logger, invoices.NewRepository(pool), dynamicMiddleware)
	accessRulesHandler := accessrules.NewHandler(logger, ruleService, auditLogger, authzMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Gate:               gate,
		AuthHandler:        authHandler,
		LeadsHandler:       leadsHandler,
		InvoicesHandler:    invoicesHandler,
		AccessRulesHandler: accessRulesHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
