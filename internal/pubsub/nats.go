package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const flushTimeout = 5 * time.Second

// NATS carries topics over core NATS subjects.
type NATS struct {
	conn *nats.Conn
}

func DialNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(
		url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func NewNATS(conn *nats.Conn) *NATS {
	return &NATS{conn: conn}
}

// Publish - returns once the server has the message; that is the only ack core NATS gives.
func (that *NATS) Publish(ctx context.Context, topic string, data []byte) error {
	if err := validateTopic(topic); err != nil {
		return err
	}

	if err := that.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("failed to publish to nats: %w", err)
	}

	if err := that.flush(ctx); err != nil {
		return fmt.Errorf("failed to flush nats: %w", err)
	}

	return nil
}

func (that *NATS) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}

	sub, err := that.conn.Subscribe(topic, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to nats: %w", err)
	}

	if err = that.flush(ctx); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush nats subscription: %w", err)
	}

	return sub, nil
}

// flush - FlushWithContext refuses contexts without a deadline.
func (that *NATS) flush(ctx context.Context) error {
	if _, ok := ctx.Deadline(); ok {
		return that.conn.FlushWithContext(ctx)
	}
	return that.conn.FlushTimeout(flushTimeout)
}

func (that *NATS) Close() error {
	if err := that.conn.Drain(); err != nil {
		return fmt.Errorf("failed to drain nats: %w", err)
	}
	return nil
}
