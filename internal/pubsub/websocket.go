package pubsub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpPublish     = "publish"
	OpMessage     = "message"
)

const writeWait = 10 * time.Second

// Frame is the relay wire format in both directions.
type Frame struct {
	Op    string `json:"op"`
	Topic string `json:"topic"`
	Data  []byte `json:"data,omitempty"`
}

// WebSocket is a bus client for the relay hub. One connection per session; Close releases it.
type WebSocket struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[string]map[uint64]Handler
	nextID   uint64

	done      chan struct{}
	closeOnce sync.Once
}

func DialWebSocket(ctx context.Context, url string, header http.Header) (*WebSocket, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	bus := &WebSocket{
		conn:     conn,
		handlers: make(map[string]map[uint64]Handler),
		done:     make(chan struct{}),
	}

	go bus.readLoop()

	return bus, nil
}

func (that *WebSocket) Publish(ctx context.Context, topic string, data []byte) error {
	if err := validateTopic(topic); err != nil {
		return err
	}

	return that.write(ctx, Frame{Op: OpPublish, Topic: topic, Data: data})
}

func (that *WebSocket) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	if err := validateTopic(topic); err != nil {
		return nil, err
	}

	that.mu.Lock()
	that.nextID++
	id := that.nextID
	first := len(that.handlers[topic]) == 0
	if first {
		that.handlers[topic] = make(map[uint64]Handler)
	}
	that.handlers[topic][id] = handler
	that.mu.Unlock()

	if first {
		if err := that.write(ctx, Frame{Op: OpSubscribe, Topic: topic}); err != nil {
			that.removeHandler(topic, id)
			return nil, err
		}
	}

	return subscriptionFunc(func() error {
		if !that.removeHandler(topic, id) {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		return that.write(ctx, Frame{Op: OpUnsubscribe, Topic: topic})
	}), nil
}

// removeHandler - reports whether the topic has no handlers left.
func (that *WebSocket) removeHandler(topic string, id uint64) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.handlers[topic], id)
	if len(that.handlers[topic]) == 0 {
		delete(that.handlers, topic)
		return true
	}
	return false
}

func (that *WebSocket) write(ctx context.Context, frame Frame) error {
	select {
	case <-that.done:
		return ErrClosed
	default:
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", frame.Op, err)
	}

	return nil
}

func (that *WebSocket) readLoop() {
	defer that.shutdown()

	for {
		var frame Frame
		if err := that.conn.ReadJSON(&frame); err != nil {
			return
		}

		if frame.Op != OpMessage {
			continue
		}

		that.mu.RLock()
		handlers := make([]Handler, 0, len(that.handlers[frame.Topic]))
		for _, handler := range that.handlers[frame.Topic] {
			handlers = append(handlers, handler)
		}
		that.mu.RUnlock()

		for _, handler := range handlers {
			handler(frame.Data)
		}
	}
}

// Done - closed once the connection is gone.
func (that *WebSocket) Done() <-chan struct{} {
	return that.done
}

func (that *WebSocket) Close() error {
	select {
	case <-that.done:
		return nil
	default:
	}

	that.writeMu.Lock()
	err := that.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	that.writeMu.Unlock()

	that.shutdown()

	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to close relay connection: %w", err)
	}
	return nil
}

func (that *WebSocket) shutdown() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}
