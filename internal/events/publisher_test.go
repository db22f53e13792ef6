package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraevents "github.com/huzhengnan/website-monitor-sub000/infrastructure/events"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/events"
)

func newPublisher(t *testing.T) (*events.Publisher, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return events.NewPublisher(client, infralogger.NewNop()), client
}

func TestNewPublisher_NilClient(t *testing.T) {
	t.Parallel()

	assert.Nil(t, events.NewPublisher(nil, infralogger.NewNop()))
}

func TestPublisher_Publish(t *testing.T) {
	pub, client := newPublisher(t)
	ctx := context.Background()
	siteID := uuid.NewString()

	err := pub.Publish(ctx, infraevents.Event{
		EventType: infraevents.ConnectorSyncDone,
		EntityID:  siteID,
		Payload:   infraevents.SyncPayload{SiteID: siteID, Type: "GoogleAnalytics", Rows: 3},
	})
	require.NoError(t, err)

	msgs, err := client.XRange(ctx, infraevents.StreamName, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "CONNECTOR_SYNC_COMPLETED", msgs[0].Values["event_type"])

	var got infraevents.Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["event"].(string)), &got))
	assert.NotEqual(t, uuid.Nil, got.EventID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, siteID, got.EntityID)
}

func TestPublisher_PublishAsync(t *testing.T) {
	pub, client := newPublisher(t)

	pub.PublishAsync(infraevents.SiteCreated, uuid.NewString(), nil)

	assert.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), infraevents.StreamName).Result()
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_NilReceiverIsNoOp(t *testing.T) {
	t.Parallel()

	var pub *events.Publisher
	require.NoError(t, pub.Publish(context.Background(), infraevents.Event{EventType: infraevents.SiteDeleted}))
	pub.PublishAsync(infraevents.SiteDeleted, "x", nil)
}
