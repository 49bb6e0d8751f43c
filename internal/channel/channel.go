// Package channel carries room traffic between the two seats of a room on top of a pubsub.Bus.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
)

const (
	KindMove          = "move"
	KindResyncRequest = "resync_request"
	KindResyncState   = "resync_state"
)

const movesTopic = "moves"

var (
	ErrAlreadySubscribed = errors.New("channel is already subscribed")
	errMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is the JSON message on a room's moves topic.
type Envelope struct {
	Kind          string            `json:"kind"`
	Sender        string            `json:"sender"`
	Role          string            `json:"role"`
	Move          *entity.MoveEvent `json:"move,omitempty"`
	HistoryLength int               `json:"history_length,omitempty"`
	Force         bool              `json:"force,omitempty"`
	State         *entity.GameState `json:"state,omitempty"`
	SentAt        time.Time         `json:"sent_at"`
}

func (that *Envelope) validate() error {
	if that.Sender == "" || !entity.IsPlayer(that.Role) {
		return fmt.Errorf("%w: missing sender or role", errMalformedEnvelope)
	}

	switch that.Kind {
	case KindMove:
		if that.Move == nil {
			return fmt.Errorf("%w: move envelope without move", errMalformedEnvelope)
		}
		if err := that.Move.Validate(); err != nil {
			return err
		}
		if that.Move.Player != that.Role {
			return fmt.Errorf("%w: %s sent a move for %s", errMalformedEnvelope, that.Role, that.Move.Player)
		}
	case KindResyncRequest:
		if that.HistoryLength < 0 {
			return fmt.Errorf("%w: negative history length", errMalformedEnvelope)
		}
	case KindResyncState:
		if that.State == nil {
			return fmt.Errorf("%w: state envelope without state", errMalformedEnvelope)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", errMalformedEnvelope, that.Kind)
	}

	return nil
}

// MoveChannel publishes and receives one participant's view of a room's move traffic.
// Envelopes sent by the local participant are filtered out on delivery.
type MoveChannel struct {
	logger *slog.Logger
	bus    pubsub.Bus
	topic  string
	self   entity.Participant
	now    func() time.Time

	mu  sync.Mutex
	sub pubsub.Subscription
}

func New(logger *slog.Logger, bus pubsub.Bus, self entity.Participant) *MoveChannel {
	return &MoveChannel{
		logger: logger.With("component", "move-channel", "room_id", self.RoomID, "role", self.Role),
		bus:    bus,
		topic:  pubsub.RoomTopic(self.RoomID, movesTopic),
		self:   self,
		now:    time.Now,
	}
}

// Subscribe - starts delivering envelopes from the other seat to handler.
func (that *MoveChannel) Subscribe(ctx context.Context, handler func(*Envelope)) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.sub != nil {
		return ErrAlreadySubscribed
	}

	sub, err := that.bus.Subscribe(ctx, that.topic, func(data []byte) {
		envelope, ok := that.decode(data)
		if !ok {
			return
		}
		handler(envelope)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to moves: %w", err)
	}

	that.sub = sub

	return nil
}

func (that *MoveChannel) decode(data []byte) (*Envelope, bool) {
	log := that.logger.With("method", "decode")

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Warn("failed to unmarshal envelope", "error", err)
		return nil, false
	}

	if envelope.Sender == that.self.ID {
		return nil, false
	}

	if err := envelope.validate(); err != nil {
		log.Warn("dropping envelope", "sender", envelope.Sender, "error", err)
		return nil, false
	}

	return &envelope, true
}

// PublishMove - returns nil once the bus accepted the move, otherwise an error wrapping ErrSendFailed.
func (that *MoveChannel) PublishMove(ctx context.Context, event entity.MoveEvent) error {
	if err := that.publish(ctx, &Envelope{Kind: KindMove, Move: &event}); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrSendFailed, err)
	}

	return nil
}

// RequestResync - asks the other seat for its state. Without force only a longer history is sent back.
func (that *MoveChannel) RequestResync(ctx context.Context, historyLength int, force bool) error {
	return that.publish(ctx, &Envelope{
		Kind:          KindResyncRequest,
		HistoryLength: historyLength,
		Force:         force,
	})
}

func (that *MoveChannel) PublishState(ctx context.Context, state *entity.GameState) error {
	return that.publish(ctx, &Envelope{Kind: KindResyncState, State: state})
}

func (that *MoveChannel) publish(ctx context.Context, envelope *Envelope) error {
	envelope.Sender = that.self.ID
	envelope.Role = that.self.Role
	envelope.SentAt = that.now().UTC()

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", envelope.Kind, err)
	}

	if err = that.bus.Publish(ctx, that.topic, data); err != nil {
		return fmt.Errorf("failed to publish %s envelope: %w", envelope.Kind, err)
	}

	return nil
}

// Close - stops delivery. The bus itself stays open.
func (that *MoveChannel) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.sub == nil {
		return nil
	}

	sub := that.sub
	that.sub = nil

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from moves: %w", err)
	}

	return nil
}
