package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"backend/internal/collector"
	"backend/internal/config"
	"backend/internal/crypto"
	"backend/internal/ingest"
	"backend/internal/matcher"
	"backend/internal/notifier"
	"backend/internal/repository"
	"backend/internal/server"
	"backend/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfgPath := "configs/config.yml"
	if fromEnv := os.Getenv("CONFIG_PATH"); fromEnv != "" {
		cfgPath = fromEnv
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repository.MigrateDB(db, logger)

	sealer, err := crypto.NewSealer()
	if err != nil {
		logger.Fatal("Failed to initialize sealer", zap.Error(err))
	}

	authRepo := repository.NewAuthRepository(db, logger)
	platformRepo := repository.NewPlatformRepository(db, logger)
	patternRepo := repository.NewPatternRepository(db, logger)
	detectionRepo := repository.NewDetectionRepository(db, logger)
	sessionRepo := repository.NewSessionRepository(db, logger)
	contentRepo := repository.NewContentRepository(db, logger)
	connectionRepo := repository.NewConnectionRepository(db, logger)
	analyticsRepo := repository.NewAnalyticsRepository(db, logger)

	dispatcher := service.NewDispatcher(logger)
	aggregator := service.NewAggregator(analyticsRepo, logger)
	dispatcher.Register(aggregator)

	authService := service.NewAuthService(authRepo, cfg.Auth, logger)
	detectionService := service.NewDetectionService(detectionRepo, patternRepo, platformRepo, authRepo, matcher.New(), dispatcher, logger)
	sessionService := service.NewSessionService(sessionRepo, platformRepo, dispatcher, logger)
	connectionService := service.NewConnectionService(connectionRepo, logger)

	bot, err := notifier.NewBot(cfg.Alerts, aggregator, logger)
	if err != nil {
		logger.Warn("Failed to initialize alert bot, continuing without it", zap.Error(err))
		bot = nil
	}
	if bot != nil {
		dispatcher.Register(bot)
	}

	collectorClient := collector.NewClient(cfg.Collector.URL, logger)
	processor := ingest.NewProcessor(
		collectorClient,
		sessionService,
		detectionService,
		connectionService,
		patternRepo,
		platformRepo,
		contentRepo,
		dispatcher,
		cfg.Collector,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if bot != nil {
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Error("Alert bot failed", zap.Error(err))
			}
		}()
	}
	go processor.Run(ctx)

	srv := server.NewServer(cfg, server.Deps{
		Auth:        authService,
		Detections:  detectionService,
		Sessions:    sessionService,
		Connections: connectionService,
		Aggregator:  aggregator,
		Platforms:   platformRepo,
		Patterns:    patternRepo,
		Content:     contentRepo,
		Sealer:      sealer,
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Application stopped")
}
