// Package redis opens the Redis connection behind siteboard's event stream.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	infraconfig "github.com/huzhengnan/website-monitor-sub000/infrastructure/config"
	infracontext "github.com/huzhengnan/website-monitor-sub000/infrastructure/context"
)

// ClientName is reported by CLIENT LIST for every siteboard connection.
const ClientName = "siteboard"

// ErrEmptyAddress is returned when no address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

// NewClient connects to cfg.Address and pings it. The client is closed
// again if the ping fails.
func NewClient(ctx context.Context, cfg infraconfig.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Address,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: ClientName,
	})

	pingCtx, cancel := infracontext.WithPingTimeout(ctx)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}
