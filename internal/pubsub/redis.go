package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis carries topics over Redis Pub/Sub. The client is shared with the caller and is not
// closed by Close.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (that *Redis) Publish(ctx context.Context, topic string, data []byte) error {
	if err := validateTopic(topic); err != nil {
		return err
	}

	if err := that.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	return nil
}

func (that *Redis) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}

	pubSub := that.client.Subscribe(ctx, topic)

	// wait for the subscription confirmation so nothing published after return is missed
	if _, err := pubSub.Receive(ctx); err != nil {
		_ = pubSub.Close()
		return nil, fmt.Errorf("failed to subscribe to redis: %w", err)
	}

	messages := pubSub.Channel()
	go func() {
		for message := range messages {
			handler([]byte(message.Payload))
		}
	}()

	return subscriptionFunc(pubSub.Close), nil
}

func (that *Redis) Close() error {
	return nil
}
