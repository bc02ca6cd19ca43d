//nolint:testpackage // Testing internal publisher requires same package access
package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/gocampaign/internal/logger"
)

func newTestPublisher(t *testing.T) (*Publisher, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewPublisher(client, "campaign.content.published", logger.NewNop()), client
}

func TestPublisher_PublishAppendsToStream(t *testing.T) {
	publisher, client := newTestPublisher(t)
	ctx := context.Background()

	event := ContentPublishedEvent{
		SiteID:       uuid.New(),
		ArtifactID:   uuid.New(),
		Keyword:      "seo tools",
		PublishedURL: "https://example.com/best-seo-tools",
		Channels:     []string{"cms"},
	}

	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	entries, err := client.XRange(ctx, "campaign.content.published", "-", "+").Result()
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("stream entries = %d, want 1", len(entries))
	}

	payload, ok := entries[0].Values["event"].(string)
	if !ok {
		t.Fatalf("event field missing from stream entry: %v", entries[0].Values)
	}

	var decoded ContentPublishedEvent
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("decoding event payload: %v", err)
	}
	if decoded.Keyword != "seo tools" {
		t.Errorf("Keyword = %q, want %q", decoded.Keyword, "seo tools")
	}
	if decoded.EventID == uuid.Nil {
		t.Error("EventID should be assigned on publish")
	}
	if decoded.Timestamp.IsZero() {
		t.Error("Timestamp should be stamped on publish")
	}
}

func TestPublisher_TwoPublishesTwoEntries(t *testing.T) {
	publisher, client := newTestPublisher(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := publisher.Publish(ctx, ContentPublishedEvent{Keyword: "seo tools"}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	length, err := client.XLen(ctx, "campaign.content.published").Result()
	if err != nil {
		t.Fatalf("XLen: %v", err)
	}
	if length != 2 {
		t.Errorf("stream length = %d, want 2", length)
	}
}

func TestPublisher_NilIsNoOp(t *testing.T) {
	var publisher *Publisher

	if err := publisher.Publish(context.Background(), ContentPublishedEvent{}); err != nil {
		t.Errorf("nil publisher should be a no-op, got %v", err)
	}
	publisher.PublishAsync(ContentPublishedEvent{})
}

func TestNewPublisher_NilClient(t *testing.T) {
	if got := NewPublisher(nil, "stream", logger.NewNop()); got != nil {
		t.Error("NewPublisher(nil client) should return nil")
	}
}
