package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EventBus moves pre-encoded push frames through a Redis channel so that
// every api-server instance sees writes made through any other instance.
// The bus carries opaque payloads; frame construction stays with the
// publisher.
type EventBus struct {
	client  *redis.Client
	channel string
}

func NewEventBus(client *redis.Client, channel string) *EventBus {
	return &EventBus{client: client, channel: channel}
}

// Publish broadcasts one encoded frame.
func (b *EventBus) Publish(ctx context.Context, payload []byte) error {
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish push frame: %w", err)
	}
	return nil
}

// Subscribe returns the raw frames arriving on the bus. The channel closes
// when ctx is cancelled.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan []byte, error) {
	sub := b.client.Subscribe(ctx, b.channel)

	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
