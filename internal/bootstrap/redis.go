package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"

	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	infraredis "github.com/huzhengnan/website-monitor-sub000/infrastructure/redis"
	"github.com/huzhengnan/website-monitor-sub000/internal/config"
	"github.com/huzhengnan/website-monitor-sub000/internal/events"
)

// SetupRedis connects to Redis when events are enabled. It returns nil if
// Redis is disabled or unavailable; events are then dropped.
func SetupRedis(ctx context.Context, cfg *config.Config, log infralogger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	client, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis not available, events disabled",
			infralogger.Error(err),
		)
		return nil
	}

	log.Info("Event publisher initialized",
		infralogger.String("redis_address", cfg.Redis.Address),
	)
	return client
}

// SetupEventPublisher wraps client; a nil client gives a no-op publisher.
func SetupEventPublisher(client *redis.Client, log infralogger.Logger) *events.Publisher {
	return events.NewPublisher(client, log)
}
