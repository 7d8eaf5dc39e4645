package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/thelittlethings/backend/internal/metrics"
	"github.com/thelittlethings/backend/internal/middleware"
	"github.com/thelittlethings/backend/internal/notification"
	"github.com/thelittlethings/backend/internal/router"
	"github.com/thelittlethings/backend/internal/services"
	"github.com/thelittlethings/backend/internal/workers"
	"github.com/thelittlethings/backend/pkg/config"
	"github.com/thelittlethings/backend/pkg/firebase"
	"github.com/thelittlethings/backend/pkg/logger"
	"github.com/thelittlethings/backend/validators"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	if err := run(cfg, logr); err != nil {
		logr.Error("server exited", zap.Error(err))
		_ = logr.Sync()
		os.Exit(1)
	}
	_ = logr.Sync()
}

// run owns every resource opened after the logger so that deferred cleanup
// happens before main decides the exit code.
func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var (
		repos router.Repositories
		ping  func(context.Context) error
	)
	switch cfg.Storage {
	case config.StorageMemory:
		logr.Warn("using in-memory storage, data is lost on restart")
		repos = router.MemoryRepositories()
	default:
		db, err := config.InitDB(cfg, logr)
		if err != nil {
			return fmt.Errorf("initialize databases: %w", err)
		}
		defer db.CloseDB()
		ping = db.Ping

		if db.Mongo != nil {
			repos, err = router.PostgresRepositories(ctx, db.Postgres, db.Mongo.Database(cfg.MongoDatabase))
		} else {
			repos, err = router.PostgresRepositories(ctx, db.Postgres, nil)
		}
		if err != nil {
			return fmt.Errorf("prepare repositories: %w", err)
		}
		logr.Info("PostgreSQL auto-migrations completed")
	}

	// --- Firebase (optional) ---
	opts := router.Options{Ping: ping}
	var pusher services.Pusher
	if cfg.FirebaseCredentialsPath != "" || cfg.FirebaseCredentialsJSON != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCredentialsJSON)
		if err != nil {
			return fmt.Errorf("initialize Firebase: %w", err)
		}
		opts.FirebaseAuth = app.AuthClient
		pusher = notification.NewFCMService(app.Messaging)
		logr.Info("Firebase auth and messaging initialized")
	} else {
		logr.Warn("Firebase not configured, firebase-login and push notifications disabled")
	}

	metrics.Register(prometheus.DefaultRegisterer)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.CleanupVisitors(ctx)
	opts.RateLimiter = limiter

	svcs := router.NewServices(repos, pusher, logr)

	// --- HTTP ---
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, cfg, logr.Named("http"))
	router.SetupRoutes(e, cfg, repos, svcs, opts, logr)

	worker := workers.NewExpiryWorker(svcs.Challenges, repos.Tokens, cfg.ExpirySweepInterval, logr.Named("expiry"))
	go worker.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env), zap.String("storage", cfg.Storage))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logr.Info("shutting down")
	case runErr = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown", zap.Error(err))
	}
	return runErr
}
