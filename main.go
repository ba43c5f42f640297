package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/model_client"
	"backend/internal/repository"
	"backend/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	log := logrus.New()

	// Load configuration
	cfgPath := "configs/config.yml"
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		cfgPath = env
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Make sure the uploads directory exists before serving from it
	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		logger.Fatal("Failed to create uploads directory", zap.Error(err))
	}

	// Initialize scoring model client
	modelClient := model_client.NewClient(cfg.ModelService.URL)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize and run the server
	srv := server.NewServer(db, cfg, logger, log, modelClient)
	go srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
