// Package bootstrap handles application initialization and lifecycle
// management for the siteboard server.
package bootstrap

import (
	"context"
	"fmt"

	infracontext "github.com/huzhengnan/website-monitor-sub000/infrastructure/context"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/api"
	"github.com/huzhengnan/website-monitor-sub000/internal/database"
	"github.com/huzhengnan/website-monitor-sub000/internal/googlesync"
)

// Start initializes and runs the server until it receives SIGINT or SIGTERM.
func Start(configPath, version string) error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := CreateLogger(cfg, version)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Setup database and Redis
	db, err := SetupDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			log.Error("Failed to close database", infralogger.Error(closeErr))
		}
	}()

	redisClient := SetupRedis(context.Background(), cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Phase 3: Wire services
	components := SetupComponents(cfg, db, redisClient, log)
	defer components.Services.Recomputer.Close()

	// Phase 4: Start the sync scheduler (optional)
	if cfg.Sync.Enabled {
		scheduler := googlesync.NewScheduler(components.Syncer, cfg.Sync.Schedule, log)
		if startErr := scheduler.Start(); startErr != nil {
			return fmt.Errorf("start sync scheduler: %w", startErr)
		}
		defer func() {
			ctx, cancel := infracontext.WithShutdownTimeout()
			defer cancel()
			scheduler.Stop(ctx)
		}()
	}

	// Phase 5: Setup and run HTTP server
	checks := api.HealthChecks{Database: components.Store.Ping}
	if redisClient != nil {
		checks.Redis = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	server := api.NewRouter(components.Services, cfg, components.Metrics, log).NewServer(version, checks)

	log.Info("Starting HTTP server",
		infralogger.String("host", cfg.Server.Host),
		infralogger.Int("port", cfg.Server.Port),
		infralogger.Bool("sync_enabled", cfg.Sync.Enabled),
	)

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
