package service

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/common/logger"
	"github.com/lyzr/tagservice/common/queue"
	"github.com/lyzr/tagservice/common/redis"
)

const (
	// EventTopic is the in-memory queue topic for tag events
	EventTopic = "tag.events"

	// EventChannel is the Redis pub/sub channel for tag events
	EventChannel = "tag_events"
)

// EventPublisher delivers tag lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event *models.TagEvent) error
}

// QueueEventPublisher publishes events to an in-process queue
type QueueEventPublisher struct {
	q queue.Queue
}

// NewQueueEventPublisher creates a publisher on EventTopic
func NewQueueEventPublisher(q queue.Queue) *QueueEventPublisher {
	return &QueueEventPublisher{q: q}
}

// Publish implements EventPublisher
func (p *QueueEventPublisher) Publish(ctx context.Context, event *models.TagEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.q.Publish(ctx, EventTopic, event.TagID, data)
}

// RedisEventPublisher publishes events on a Redis channel
type RedisEventPublisher struct {
	client *redis.Client
}

// NewRedisEventPublisher creates a publisher on EventChannel
func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

// Publish implements EventPublisher
func (p *RedisEventPublisher) Publish(ctx context.Context, event *models.TagEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.PublishEvent(ctx, EventChannel, string(data))
}

// NoopEventPublisher drops every event
type NoopEventPublisher struct{}

// Publish implements EventPublisher
func (NoopEventPublisher) Publish(context.Context, *models.TagEvent) error { return nil }

// diffTags returns the merge patch turning before into after.
// A nil before yields the full after document.
func diffTags(before, after *models.Tag) (json.RawMessage, error) {
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return afterJSON, nil
	}

	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.CreateMergePatch(beforeJSON, afterJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to diff tag: %w", err)
	}
	return patch, nil
}

// AuditSubscriber logs every event published on the queue
type AuditSubscriber struct {
	q   queue.Queue
	log *logger.Logger
}

// NewAuditSubscriber creates a subscriber for EventTopic
func NewAuditSubscriber(q queue.Queue, log *logger.Logger) *AuditSubscriber {
	return &AuditSubscriber{q: q, log: log}
}

// Start begins consuming events until ctx is cancelled
func (a *AuditSubscriber) Start(ctx context.Context) error {
	return a.q.Subscribe(ctx, EventTopic, a.handle)
}

func (a *AuditSubscriber) handle(ctx context.Context, key string, value []byte) error {
	var event models.TagEvent
	if err := json.Unmarshal(value, &event); err != nil {
		a.log.Warn("dropping malformed tag event", "key", key, "error", err)
		return nil
	}

	a.log.Info("tag event",
		"type", event.Type,
		"tag_id", event.TagID,
		"actor", event.Actor,
		"changes", string(event.Changes),
		"occurred_at", event.OccurredAt,
	)
	return nil
}
