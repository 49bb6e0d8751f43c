package pubsub

import (
	"context"
	"fmt"
	"sync"
)

const subscriberBuffer = 64

// Memory is an in-process bus. Each subscriber has its own buffered queue drained by one
// goroutine, so handlers see messages of a topic in publish order and never block publishers.
// A full queue drops the message.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscriber]struct{}
	closed bool
}

type memorySubscriber struct {
	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

func NewMemory() *Memory {
	return &Memory{
		subs: make(map[string]map[*memorySubscriber]struct{}),
	}
}

func (that *Memory) Publish(ctx context.Context, topic string, data []byte) error {
	if err := validateTopic(topic); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.closed {
		return ErrClosed
	}

	for sub := range that.subs[topic] {
		message := append([]byte(nil), data...)
		select {
		case sub.queue <- message:
		default:
			// slow subscriber, drop
		}
	}

	return nil
}

func (that *Memory) Subscribe(_ context.Context, topic string, handler Handler) (Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}

	sub := &memorySubscriber{
		queue: make(chan []byte, subscriberBuffer),
		done:  make(chan struct{}),
	}

	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return nil, ErrClosed
	}
	if that.subs[topic] == nil {
		that.subs[topic] = make(map[*memorySubscriber]struct{})
	}
	that.subs[topic][sub] = struct{}{}
	that.mu.Unlock()

	go sub.run(handler)

	return subscriptionFunc(func() error {
		that.remove(topic, sub)
		return nil
	}), nil
}

func (that *Memory) remove(topic string, sub *memorySubscriber) {
	that.mu.Lock()
	delete(that.subs[topic], sub)
	if len(that.subs[topic]) == 0 {
		delete(that.subs, topic)
	}
	that.mu.Unlock()

	sub.stop()
}

func (that *Memory) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return nil
	}
	that.closed = true

	for _, subs := range that.subs {
		for sub := range subs {
			sub.stop()
		}
	}
	that.subs = nil

	return nil
}

func (that *memorySubscriber) run(handler Handler) {
	for {
		select {
		case <-that.done:
			return
		case message := <-that.queue:
			handler(message)
		}
	}
}

func (that *memorySubscriber) stop() {
	that.once.Do(func() {
		close(that.done)
	})
}
