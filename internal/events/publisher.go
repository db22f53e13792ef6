// Package events publishes siteboard domain events to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infraevents "github.com/huzhengnan/website-monitor-sub000/infrastructure/events"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
)

const (
	asyncPublishTimeout = 5 * time.Second

	// maxStreamLength caps the stream; trimming is approximate.
	maxStreamLength = 10000
)

// Publisher writes events to Redis Streams. A nil *Publisher is a valid
// no-op publisher, used when Redis is not configured.
type Publisher struct {
	client *redis.Client
	log    infralogger.Logger
}

// NewPublisher returns nil if client is nil.
func NewPublisher(client *redis.Client, log infralogger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{
		client: client,
		log:    log,
	}
}

// Publish sends an event to the stream, filling in its id and timestamp.
func (p *Publisher) Publish(ctx context.Context, event infraevents.Event) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: infraevents.StreamName,
		MaxLen: maxStreamLength,
		Approx: true,
		Values: map[string]any{
			"event_type": string(event.EventType),
			"event":      string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		p.log.Error("Failed to publish event",
			infralogger.String("event_type", string(event.EventType)),
			infralogger.String("entity_id", event.EntityID),
			infralogger.Error(publishErr),
		)
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("Published event",
		infralogger.String("event_type", string(event.EventType)),
		infralogger.String("entity_id", event.EntityID),
		infralogger.String("stream_id", result.Val()),
	)
	return nil
}

// PublishAsync publishes in the background. Errors are logged only.
func (p *Publisher) PublishAsync(eventType infraevents.EventType, entityID string, payload any) {
	if p == nil {
		return
	}

	event := infraevents.Event{EventType: eventType, EntityID: entityID, Payload: payload}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		// Publish already logs the failure.
		_ = p.Publish(ctx, event)
	}()
}
