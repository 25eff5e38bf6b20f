package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/phishscan/internal/application"
	appai "github.com/bryanwahyu/phishscan/internal/application/ai"
	appfeedback "github.com/bryanwahyu/phishscan/internal/application/feedback"
	appscans "github.com/bryanwahyu/phishscan/internal/application/scans"
	"github.com/bryanwahyu/phishscan/internal/config"
	"github.com/bryanwahyu/phishscan/internal/domain/ai"
	"github.com/bryanwahyu/phishscan/internal/domain/dataset"
	"github.com/bryanwahyu/phishscan/internal/domain/feedback"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
	"github.com/bryanwahyu/phishscan/internal/infra/ai/gemini"
	"github.com/bryanwahyu/phishscan/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/phishscan/internal/infra/db/mysql"
	"github.com/bryanwahyu/phishscan/internal/infra/db/postgres"
	"github.com/bryanwahyu/phishscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/phishscan/internal/infra/httpserver"
	"github.com/bryanwahyu/phishscan/internal/infra/predictor"
	minioStore "github.com/bryanwahyu/phishscan/internal/infra/storage"
	"github.com/bryanwahyu/phishscan/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	ctx := context.Background()

	db, scanRepo, feedbackRepo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database ready", "driver", cfg.Database.Driver)

	predictorClient := predictor.NewClient(cfg.Predictor.BaseURL, cfg.Predictor.Timeout)

	verifier := appai.NewService(newAIClient(cfg), appai.FallbackPolicy(cfg.AI.Fallback), logger)

	// corrections go to the inference service, and to MinIO when enabled
	correctors := appfeedback.Fanout{predictorClient}
	if cfg.Minio.Enabled {
		archive, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		correctors = append(correctors, dataset.Corrector(archive))
		logger.Info("correction archive enabled", "bucket", cfg.Minio.BucketName)
	}

	scanSvc := &appscans.Service{
		Repo:      scanRepo,
		Predictor: predictorClient,
		Clock:     application.SystemClock{},
		Log:       logger,
		// predictor call plus the store round trips
		ScanTimeout: cfg.Predictor.Timeout + 5*time.Second,
	}
	feedbackSvc := &appfeedback.Service{
		Feedback:          feedbackRepo,
		Scans:             scanRepo,
		Predictor:         predictorClient,
		Verifier:          verifier,
		Corrector:         correctors,
		CorrectionTimeout: cfg.Corrections.Timeout,
		Clock:             application.SystemClock{},
		Log:               logger,
	}

	stopLimiter := make(chan struct{})
	defer close(stopLimiter)

	handler := httpserver.NewRouter(scanSvc, feedbackSvc, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		APIKeys:        cfg.Server.APIKeys,
		RateLimit:      middleware.RateLimitMiddleware(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate, stopLimiter),
		Health: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
		Log: logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// feedback runs prediction and verification back to back
		WriteTimeout: cfg.Predictor.Timeout + cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "err", err)
	}

	// let in-flight correction dispatches finish before closing the db
	feedbackSvc.Wait()
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, scans.Repository, feedback.Repository, error) {
	dsn := cfg.DatabaseDSN()
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return db, mysqlp.NewScanRepository(db), mysqlp.NewFeedbackRepository(db), nil
	case "postgres":
		db, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return db, postgres.NewScanRepository(db), postgres.NewFeedbackRepository(db), nil
	default:
		db, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		return db, sqlite.NewScanRepository(db), sqlite.NewFeedbackRepository(db), nil
	}
}

func newAIClient(cfg *config.Config) ai.Client {
	switch cfg.AI.Provider {
	case "openai":
		oc := goopenai.DefaultConfig(cfg.AI.APIKey)
		oc.HTTPClient = &http.Client{Timeout: cfg.AI.Timeout}
		return openai.NewClientWithConfig(oc, cfg.AI.Model)
	default:
		return gemini.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	}
}
