package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraconfig "github.com/huzhengnan/website-monitor-sub000/infrastructure/config"
	infraredis "github.com/huzhengnan/website-monitor-sub000/infrastructure/redis"
)

func TestNewClient_Pings(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := infraredis.NewClient(context.Background(), infraconfig.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.Equal(t, infraredis.ClientName, client.Options().ClientName)
}

func TestNewClient_EmptyAddress(t *testing.T) {
	t.Parallel()

	_, err := infraredis.NewClient(context.Background(), infraconfig.RedisConfig{})
	assert.ErrorIs(t, err, infraredis.ErrEmptyAddress)
}

func TestNewClient_Unreachable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := infraredis.NewClient(context.Background(), infraconfig.RedisConfig{Address: addr})
	assert.Error(t, err)
}
