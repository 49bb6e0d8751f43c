package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// client is one relay connection. readPump owns topics; writePump owns the socket writes.
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	topics map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *client {
	return &client{
		hub:    hub,
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		topics: make(map[string]struct{}),
	}
}

// enqueue - drops the frame when the client is slow or gone.
func (that *client) enqueue(frame pubsub.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		that.logger.Error("failed to marshal frame", "error", err)
		return
	}

	select {
	case <-that.done:
	case that.send <- data:
	default:
		that.logger.Warn("client send buffer full, dropping frame", "topic", frame.Topic)
	}
}

func (that *client) readPump(ctx context.Context) {
	log := that.logger.With("method", "readPump")

	defer func() {
		for name := range that.topics {
			that.hub.removeClient(name, that)
		}
		that.close()
	}()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame pubsub.Frame
		if err := that.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("error reading frame", "error", err)
			}
			return
		}

		that.handleFrame(ctx, log, frame)
	}
}

func (that *client) handleFrame(ctx context.Context, log *slog.Logger, frame pubsub.Frame) {
	switch frame.Op {
	case pubsub.OpSubscribe:
		if _, ok := that.topics[frame.Topic]; ok {
			return
		}
		if err := that.hub.addClient(ctx, frame.Topic, that); err != nil {
			log.Error("failed to subscribe", "topic", frame.Topic, "error", err)
			return
		}
		that.topics[frame.Topic] = struct{}{}

	case pubsub.OpUnsubscribe:
		if _, ok := that.topics[frame.Topic]; !ok {
			return
		}
		delete(that.topics, frame.Topic)
		that.hub.removeClient(frame.Topic, that)

	case pubsub.OpPublish:
		publishCtx, cancel := context.WithTimeout(ctx, writeWait)
		defer cancel()

		if err := that.hub.Publish(publishCtx, frame.Topic, frame.Data); err != nil {
			log.Error("failed to publish", "topic", frame.Topic, "error", err)
		}

	default:
		log.Warn("unknown frame op", "op", frame.Op)
	}
}

func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case <-that.done:
			_ = that.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return

		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				that.close()
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}
		}
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}
