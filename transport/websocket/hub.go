package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
)

// Hub fans topics out to relay clients and in-process subscribers. With an upstream bus every
// publish goes through the upstream and comes back via a per-topic upstream subscription, so
// several relay instances behind Redis or NATS see the same traffic.
type Hub struct {
	logger   *slog.Logger
	upstream pubsub.Bus

	mu     sync.RWMutex
	topics map[string]*topic
	nextID uint64
	closed bool
}

type topic struct {
	clients  map[*client]struct{}
	handlers map[uint64]pubsub.Handler
	upstream pubsub.Subscription
}

func (that *topic) empty() bool {
	return len(that.clients) == 0 && len(that.handlers) == 0
}

func NewHub(logger *slog.Logger, upstream pubsub.Bus) *Hub {
	return &Hub{
		logger:   logger.With("component", "relay-hub"),
		upstream: upstream,
		topics:   make(map[string]*topic),
	}
}

// Publish - implements pubsub.Bus for in-process publishers such as the room lobby.
func (that *Hub) Publish(ctx context.Context, name string, data []byte) error {
	if that.isClosed() {
		return pubsub.ErrClosed
	}

	if that.upstream != nil {
		if err := that.upstream.Publish(ctx, name, data); err != nil {
			return fmt.Errorf("failed to publish upstream: %w", err)
		}
		return nil
	}

	that.deliver(name, data)

	return nil
}

func (that *Hub) Subscribe(ctx context.Context, name string, handler pubsub.Handler) (pubsub.Subscription, error) {
	state, err := that.attach(ctx, name)
	if err != nil {
		return nil, err
	}

	that.nextID++
	id := that.nextID
	state.handlers[id] = handler
	that.mu.Unlock()

	return subscription(func() error {
		that.mu.Lock()
		var released pubsub.Subscription
		if state, ok := that.topics[name]; ok {
			delete(state.handlers, id)
			released = that.detachIfEmpty(name, state)
		}
		that.mu.Unlock()

		that.release(name, released)
		return nil
	}), nil
}

func (that *Hub) Close() error {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return nil
	}
	that.closed = true

	released := make(map[string]pubsub.Subscription, len(that.topics))
	for name, state := range that.topics {
		for c := range state.clients {
			c.close()
		}
		released[name] = state.upstream
	}
	that.topics = make(map[string]*topic)
	that.mu.Unlock()

	for name, sub := range released {
		that.release(name, sub)
	}

	return nil
}

func (that *Hub) addClient(ctx context.Context, name string, c *client) error {
	state, err := that.attach(ctx, name)
	if err != nil {
		return err
	}

	state.clients[c] = struct{}{}
	that.mu.Unlock()

	return nil
}

func (that *Hub) removeClient(name string, c *client) {
	that.mu.Lock()
	var released pubsub.Subscription
	if state, ok := that.topics[name]; ok {
		delete(state.clients, c)
		released = that.detachIfEmpty(name, state)
	}
	that.mu.Unlock()

	that.release(name, released)
}

// attach - returns the topic state with mu held. The upstream subscription for a new topic is made
// with mu released, so a slow broker never stalls delivery on other topics.
func (that *Hub) attach(ctx context.Context, name string) (*topic, error) {
	for {
		that.mu.Lock()
		if that.closed {
			that.mu.Unlock()
			return nil, pubsub.ErrClosed
		}

		if state, ok := that.topics[name]; ok {
			return state, nil
		}

		if that.upstream == nil {
			state := newTopic(nil)
			that.topics[name] = state
			return state, nil
		}
		that.mu.Unlock()

		sub, err := that.upstream.Subscribe(ctx, name, func(data []byte) {
			that.deliver(name, data)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe upstream: %w", err)
		}

		that.mu.Lock()
		if that.closed {
			that.mu.Unlock()
			that.release(name, sub)
			return nil, pubsub.ErrClosed
		}

		if _, ok := that.topics[name]; !ok {
			state := newTopic(sub)
			that.topics[name] = state
			return state, nil
		}
		that.mu.Unlock()

		// lost the race to another subscriber; use its topic
		that.release(name, sub)
	}
}

func newTopic(upstream pubsub.Subscription) *topic {
	return &topic{
		clients:  make(map[*client]struct{}),
		handlers: make(map[uint64]pubsub.Handler),
		upstream: upstream,
	}
}

// detachIfEmpty - drops an unused topic and returns its upstream subscription for release. Caller holds mu.
func (that *Hub) detachIfEmpty(name string, state *topic) pubsub.Subscription {
	if !state.empty() {
		return nil
	}

	delete(that.topics, name)

	return state.upstream
}

// release - unsubscribes upstream. Called without mu.
func (that *Hub) release(name string, sub pubsub.Subscription) {
	if sub == nil {
		return
	}

	if err := sub.Unsubscribe(); err != nil {
		that.logger.Error("failed to unsubscribe upstream", "topic", name, "error", err)
	}
}

func (that *Hub) deliver(name string, data []byte) {
	that.mu.RLock()
	state, ok := that.topics[name]
	if !ok {
		that.mu.RUnlock()
		return
	}

	clients := make([]*client, 0, len(state.clients))
	for c := range state.clients {
		clients = append(clients, c)
	}
	handlers := make([]pubsub.Handler, 0, len(state.handlers))
	for _, handler := range state.handlers {
		handlers = append(handlers, handler)
	}
	that.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(pubsub.Frame{Op: pubsub.OpMessage, Topic: name, Data: data})
	}

	for _, handler := range handlers {
		handler(data)
	}
}

func (that *Hub) isClosed() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()
	return that.closed
}

// Topics - number of topics with at least one subscriber.
func (that *Hub) Topics() int {
	that.mu.RLock()
	defer that.mu.RUnlock()
	return len(that.topics)
}

type subscription func() error

func (that subscription) Unsubscribe() error {
	return that()
}
