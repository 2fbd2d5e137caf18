package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/common/logger"
	rediscommon "github.com/lyzr/tagservice/common/redis"
)

// EventChannel is the Redis channel tagservice publishes lifecycle events on
const EventChannel = "tag_events"

// RedisSubscriber relays tag events from Redis pub/sub to the hub
type RedisSubscriber struct {
	redis *rediscommon.Client
	hub   *Hub
	log   *logger.Logger
}

// NewRedisSubscriber creates a new Redis subscriber
func NewRedisSubscriber(redis *rediscommon.Client, hub *Hub, log *logger.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		redis: redis,
		hub:   hub,
		log:   log,
	}
}

// Start subscribes to the event channel and relays until ctx is done
func (s *RedisSubscriber) Start(ctx context.Context) error {
	pubsub := s.redis.Subscribe(ctx, EventChannel)
	defer pubsub.Close()

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", EventChannel, err)
	}

	s.log.Info("subscribed to tag events", "channel", EventChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("redis subscriber stopping")
			return nil

		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis channel %s closed", EventChannel)
			}

			routed, err := route(msg.Payload)
			if err != nil {
				s.log.Warn("dropping malformed tag event", "error", err)
				continue
			}
			s.hub.Publish(routed)
		}
	}
}

// route decodes a tag event and addresses it to its tag
func route(payload string) (*Message, error) {
	var event models.TagEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("decode tag event: %w", err)
	}
	if event.TagID == "" {
		return nil, fmt.Errorf("tag event %q has no tag_id", event.Type)
	}

	// Non-admin subscribers only learn that something happened
	event.Changes = nil
	event.Actor = ""
	summary, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode tag event summary: %w", err)
	}

	return &Message{
		TagID:   event.TagID,
		Data:    []byte(payload),
		Summary: summary,
	}, nil
}
