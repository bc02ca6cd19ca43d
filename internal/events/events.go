// Package events publishes content lifecycle notifications to Redis Streams
// so downstream consumers (indexers, dashboards) learn about newly published
// artifacts without polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/gocampaign/internal/config"
	"github.com/jonesrussell/gocampaign/internal/logger"
)

// connectionTimeout bounds the startup ping.
const connectionTimeout = 5 * time.Second

// asyncPublishTimeout is the context timeout for fire-and-forget publishes.
const asyncPublishTimeout = 5 * time.Second

// ContentPublishedEvent announces an artifact reaching published status.
type ContentPublishedEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	SiteID       uuid.UUID `json:"site_id"`
	ArtifactID   uuid.UUID `json:"artifact_id"`
	Keyword      string    `json:"keyword"`
	PublishedURL string    `json:"published_url"`
	Channels     []string  `json:"channels"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewClient creates a Redis client and verifies the connection.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Publisher publishes content events to a Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
	log    logger.Logger
}

// NewPublisher creates an event publisher. Returns nil if client is nil;
// a nil Publisher is a safe no-op, so the pipeline runs fine without Redis.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}

	return &Publisher{
		client: client,
		stream: stream,
		log:    log,
	}
}

// Publish appends an event to the stream.
func (p *Publisher) Publish(ctx context.Context, event ContentPublishedEvent) error {
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
		Stream: p.stream,
		Values: map[string]any{
			"event": string(payload),
		},
	})
	if publishErr := result.Err(); publishErr != nil {
		p.log.Error("failed to publish content event",
			logger.String("artifact_id", event.ArtifactID.String()),
			logger.Error(publishErr))
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Info("published content event",
		logger.String("artifact_id", event.ArtifactID.String()),
		logger.String("keyword", event.Keyword),
		logger.String("stream_id", result.Val()))

	return nil
}

// PublishAsync publishes without blocking the caller. Errors are logged only:
// event delivery is best-effort and never fails a pipeline item.
func (p *Publisher) PublishAsync(event ContentPublishedEvent) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("async content event publish failed",
				logger.String("artifact_id", event.ArtifactID.String()),
				logger.Error(err))
		}
	}()
}
