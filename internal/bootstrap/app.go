// Package bootstrap handles application initialization and lifecycle
// management for the campaign engine.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/gocampaign/internal/config"
	"github.com/jonesrussell/gocampaign/internal/logger"
)

// Start initializes and runs the campaign engine.
func Start() error {
	cfg, configErr := LoadConfig()
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}

	log, logErr := CreateLogger(cfg)
	if logErr != nil {
		return fmt.Errorf("logger: %w", logErr)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Campaign Engine",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	db, dbErr := SetupDatabase(cfg)
	if dbErr != nil {
		return fmt.Errorf("database: %w", dbErr)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", logger.Error(closeErr))
		}
	}()
	log.Info("Database connection established")

	deps, depsErr := SetupDependencies(cfg, db, log)
	if depsErr != nil {
		return fmt.Errorf("dependencies: %w", depsErr)
	}
	defer deps.Close()

	scheduler := SetupScheduler(cfg, deps, log)
	scheduler.Start()
	defer scheduler.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := SetupHTTPServer(ctx, cfg, deps, log)

	if runErr := server.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server: %w", runErr)
	}

	log.Info("Campaign Engine stopped")
	return nil
}

// LoadConfig loads and validates the service configuration.
func LoadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")

	cfg, loadErr := config.Load(configPath)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// CreateLogger creates a structured logger for the service.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, logErr := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if logErr != nil {
		return nil, fmt.Errorf("create logger: %w", logErr)
	}

	return log.With(logger.String("service", cfg.Service.Name)), nil
}
