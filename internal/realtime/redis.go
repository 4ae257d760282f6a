package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"food-storefront/internal/model"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBridge publishes order events on a Redis channel and relays everything
// received on that channel into the local hub, so every instance's dashboard
// subscribers see every event.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisBridge {
	if channel == "" {
		channel = Group
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

func (b *RedisBridge) Publish(ctx context.Context, event model.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run subscribes to the channel and relays messages until ctx is cancelled.
// ready, when not nil, is closed once the subscription is confirmed.
func (b *RedisBridge) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	b.logger.Info("realtime redis bridge subscribed", slog.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.hub.Broadcast([]byte(msg.Payload))
		}
	}
}
