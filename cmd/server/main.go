package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/cache"
	"github.com/SAP-F-2025/quiz-engine/internal/config"
	"github.com/SAP-F-2025/quiz-engine/internal/engine"
	"github.com/SAP-F-2025/quiz-engine/internal/handlers"
	"github.com/SAP-F-2025/quiz-engine/internal/loader"
	"github.com/SAP-F-2025/quiz-engine/internal/progress"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories/sqlstore"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"github.com/SAP-F-2025/quiz-engine/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment, os.Stdout)
	slogger := utils.ToSlogLogger(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := newProgressRepository(ctx, cfg, slogger)
	if err != nil {
		logger.LogError(err, "Failed to initialize progress store", "store", cfg.ProgressStore)
		os.Exit(1)
	}
	defer closeRepo.Close()

	retriever, err := newRetriever(ctx, cfg)
	if err != nil {
		logger.LogError(err, "Failed to initialize document retrievers")
		os.Exit(1)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to initialize event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()
	session := engine.New(
		progress.NewGateway(repo, slogger),
		slogger,
		engine.WithRetriever(retriever),
		engine.WithPublisher(publisher),
		engine.WithValidator(v),
	)

	if cfg.QuizDefaultSource != "" {
		if err := session.Load(ctx, engine.RefSource(cfg.QuizDefaultSource)); err != nil {
			logger.Warn("Default quiz not loaded", "source", cfg.QuizDefaultSource, "error", err)
		}
	}

	manager := handlers.NewHandlerManager(
		handlers.NewQuizHandler(session, v, logger, cfg.QuizDefaultSource),
		logger,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           manager.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "port", cfg.Port, "progress_store", cfg.ProgressStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}
	logger.Info("Server exited properly")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newProgressRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.ProgressRepository, io.Closer, error) {
	switch cfg.ProgressStore {
	case config.StoreRedis:
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewProgressCache(cache.NewRedisCache(client, logger), cfg.ProgressTTL), client, nil

	case config.StorePostgres:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		return postgres.NewProgressPostgreSQL(db), sqlDB, nil

	case config.StoreSQLite, config.StorePGX:
		driver, dsn := sqlstore.DriverSQLite, sqliteDSN(cfg.SQLitePath)
		if cfg.ProgressStore == config.StorePGX {
			driver, dsn = sqlstore.DriverPostgres, cfg.DatabaseURL
		}
		db, err := sqlstore.Open(ctx, driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		return sqlstore.NewProgressSQL(db, driver), db, nil

	default:
		return memory.NewProgressMemory(), nopCloser{}, nil
	}
}

func sqliteDSN(path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", path)
}

func newRetriever(ctx context.Context, cfg *config.Config) (engine.Retriever, error) {
	httpRetriever := loader.NewHTTPRetriever(nil)
	router := loader.NewRouter(loader.NewFileRetriever(cfg.QuizBaseDir)).
		Handle("file", loader.NewFileRetriever(cfg.QuizBaseDir)).
		Handle("http", httpRetriever).
		Handle("https", httpRetriever)

	s3Client, err := loader.NewS3Client(ctx, loader.S3Config{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	router.Handle("s3", loader.NewS3Retriever(s3Client))
	return router, nil
}
