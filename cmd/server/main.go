package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/docflow/docflow/internal/ai"
	"github.com/docflow/docflow/internal/config"
	"github.com/docflow/docflow/internal/notify"
	"github.com/docflow/docflow/internal/report"
	"github.com/docflow/docflow/internal/repository"
	"github.com/docflow/docflow/internal/server"
	"github.com/docflow/docflow/internal/service"
	"github.com/docflow/docflow/internal/storage"
	"github.com/docflow/docflow/internal/worker"
	"github.com/docflow/docflow/internal/workflow"
	"github.com/docflow/docflow/pkg/database"
	"github.com/docflow/docflow/pkg/utils"
)

func main() {
	// Optional .env for local development
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting DocFlow approval service",
		zap.Int("port", cfg.Server.Port),
		zap.String("task_queue", cfg.Temporal.TaskQueue))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	docRepo := repository.NewDocumentRepository(db.DB, logger)

	fileStorage, err := storage.NewLocalFileStorage(cfg.Upload.Dir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize file storage", zap.Error(err))
	}

	var analyzer ai.Analyzer
	if cfg.OpenAI.APIKey != "" {
		analyzer = ai.NewOpenAIAnalyzer(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.Temperature,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Timeout,
			logger,
		)
		logger.Info("Using OpenAI document analyzer", zap.String("model", cfg.OpenAI.Model))
	} else {
		analyzer = ai.NewHeuristicAnalyzer(logger)
		logger.Warn("OPENAI_API_KEY not set, using heuristic document analyzer")
	}
	extractor := ai.NewPDFTextExtractor(logger)

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    utils.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer temporalClient.Close()

	activities := workflow.NewActivities(docRepo, analyzer, extractor, logger)

	workerManager := worker.NewManager(temporalClient, cfg.Temporal.TaskQueue, activities, logger)
	if err := workerManager.Start(); err != nil {
		logger.Fatal("Failed to start Temporal worker", zap.Error(err))
	}
	defer workerManager.Stop()

	var notifier notify.ReviewNotifier = notify.NoopNotifier{}
	if cfg.Lark.AppID != "" {
		notifier = notify.NewLarkNotifier(cfg.Lark.AppID, cfg.Lark.AppSecret, cfg.Lark.ReviewerChatID, logger)
		logger.Info("Lark reviewer notifications enabled", zap.String("chat_id", cfg.Lark.ReviewerChatID))
	}

	documents := service.NewDocumentService(
		docRepo,
		fileStorage,
		temporalClient,
		notifier,
		service.Config{
			TaskQueue:        cfg.Temporal.TaskQueue,
			ExecutionTimeout: cfg.Review.ExecutionTimeout,
		},
		logger,
	)

	exporter := report.NewExporter(logger)

	httpServer := server.New(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		CORSOrigin:     cfg.Server.CORSOrigin,
		MaxUploadBytes: cfg.Upload.MaxSizeBytes,
	}, documents, exporter, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("DocFlow approval service stopped")
}
