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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/app"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/audit"
	audithttp "github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/audit/http"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/auth"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/baseline"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/platform/cache"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/platform/db"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/rbac"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/snapshot"
	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/view"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "auditor_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rbacService := rbac.NewService(pool)
	rbacMiddleware := &rbac.Middleware{Service: rbacService, Logger: logger}

	source := snapshot.NewRepository(pool, logger)
	engine := audit.NewEngine(logger, source, baseline.Default())
	exporter := audit.NewExporter(cfg.SiteURL)
	auditHandler := audithttp.NewHandler(logger, engine, templates, exporter, rbacService, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		RBAC:           rbacMiddleware,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting auditor", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
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
	logger.Info("auditor stopped")
}
