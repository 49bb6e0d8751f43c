package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
)

const lobbyTopic = "lobby"

// GuestArrival tells an idle host that the room went from waiting to playing.
type GuestArrival struct {
	RoomID   string    `json:"room_id"`
	GuestID  string    `json:"guest_id"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

// Lobby carries room lifecycle notices, separate from move traffic.
type Lobby struct {
	logger *slog.Logger
	bus    pubsub.Bus
}

func NewLobby(logger *slog.Logger, bus pubsub.Bus) *Lobby {
	return &Lobby{
		logger: logger.With("component", "lobby"),
		bus:    bus,
	}
}

func (that *Lobby) NotifyGuestArrival(ctx context.Context, room *entity.Room) error {
	data, err := json.Marshal(GuestArrival{
		RoomID:   room.ID,
		GuestID:  room.GuestID,
		Status:   room.Status,
		JoinedAt: room.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal guest arrival: %w", err)
	}

	if err = that.bus.Publish(ctx, pubsub.RoomTopic(room.ID, lobbyTopic), data); err != nil {
		return fmt.Errorf("failed to publish guest arrival: %w", err)
	}

	return nil
}

// Watch - calls handler for every guest arrival in the room until the subscription is released.
func (that *Lobby) Watch(ctx context.Context, roomID string, handler func(GuestArrival)) (pubsub.Subscription, error) {
	log := that.logger.With("method", "Watch", "room_id", roomID)

	sub, err := that.bus.Subscribe(ctx, pubsub.RoomTopic(roomID, lobbyTopic), func(data []byte) {
		var arrival GuestArrival
		if err := json.Unmarshal(data, &arrival); err != nil {
			log.Warn("failed to unmarshal guest arrival", "error", err)
			return
		}

		if arrival.RoomID != roomID || arrival.GuestID == "" {
			return
		}

		handler(arrival)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch lobby: %w", err)
	}

	return sub, nil
}
