// Package pubsub is the best-effort broadcast layer under the move channel and presence edges.
// Delivery is at-most-once; publishers receive their own messages back and filter them above.
package pubsub

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrClosed       = errors.New("bus is closed")
	ErrInvalidTopic = errors.New("invalid topic")
)

type Handler func(data []byte)

type Subscription interface {
	Unsubscribe() error
}

type Bus interface {
	Publish(ctx context.Context, topic string, data []byte) error
	Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error)
	Close() error
}

const topicPrefix = "gomoku.room."

// RoomTopic - builds the topic name for one kind of room traffic.
func RoomTopic(roomID, kind string) string {
	return topicPrefix + roomID + "." + kind
}

func validateTopic(topic string) error {
	if topic == "" || strings.ContainsAny(topic, " \t\r\n*>") {
		return ErrInvalidTopic
	}
	return nil
}

type subscriptionFunc func() error

func (that subscriptionFunc) Unsubscribe() error {
	return that()
}
