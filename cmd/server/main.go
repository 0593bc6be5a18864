package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/dispatcher"
	"github.com/oakline/maintflow/internal/application/service"
	"github.com/oakline/maintflow/internal/config"
	"github.com/oakline/maintflow/internal/export"
	"github.com/oakline/maintflow/internal/infrastructure/notify"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/repository"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/sqlite"
	httpadapter "github.com/oakline/maintflow/internal/interfaces/http"
	"github.com/oakline/maintflow/pkg/database"
	"github.com/oakline/maintflow/pkg/utils"
)

func main() {
	// Optional .env for local development
	_ = gotenv.Load()

	configPath := os.Getenv("MAINTFLOW_CONFIG")
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

	logger.Info("Starting maintenance workflow service",
		zap.Int("port", cfg.Server.Port))

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)
	kvLogger := utils.NewKVLogger(logger)

	// Repositories
	requestRepo := repository.NewRequestRepository(sqlDB, logger)
	quoteRepo := repository.NewQuoteRepository(sqlDB, logger)
	workOrderRepo := repository.NewWorkOrderRepository(sqlDB, logger)
	taskRepo := repository.NewTaskRepository(sqlDB, logger)
	invoiceRepo := repository.NewInvoiceRepository(sqlDB, logger)
	notificationRepo := repository.NewNotificationRepository(sqlDB, logger)
	clientRepo := repository.NewClientRepository(sqlDB, logger)
	personnelRepo := repository.NewPersonnelRepository(sqlDB, logger)
	historyRepo := repository.NewStatusChangeRepository(sqlDB, logger)

	// Event fan-out
	d := dispatcher.New(dispatcher.WithLogger(kvLogger))

	// Services
	sink := notify.NewLogSink(logger)
	notifications := service.NewNotificationService(
		requestRepo, workOrderRepo, invoiceRepo,
		clientRepo, personnelRepo, notificationRepo,
		sink, kvLogger,
	)
	notifications.Register(d)

	cascade := service.NewCascadeResolver(taskRepo, workOrderRepo, historyRepo, d, kvLogger)
	workflows := service.NewWorkflowService(
		requestRepo, quoteRepo, workOrderRepo, taskRepo, invoiceRepo,
		historyRepo, db, d, cascade, kvLogger,
	)

	exporter := export.NewInvoiceExporter(
		invoiceRepo, workOrderRepo, clientRepo,
		cfg.Export.OutputDir, cfg.Export.CompanyName, logger,
	)

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, workflows, notifications, exporter, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	}

	// Drain in-flight event handlers before closing the database so no
	// notification is dropped on shutdown.
	d.Close()

	logger.Info("Service stopped")
}
