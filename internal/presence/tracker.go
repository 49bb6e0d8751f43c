// Package presence tracks which seats of a room are online. It is best-effort: a missing leave
// edge is not proof of liveness, and there is no heartbeat.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
)

const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventSync  = "sync"
)

const presenceTopic = "presence"

var ErrAlreadyStarted = errors.New("tracker is already started")

// Event is both the edge on the wire and what onChange receives.
type Event struct {
	Kind   string                `json:"kind"`
	Record entity.PresenceRecord `json:"record"`
}

type Tracker struct {
	logger   *slog.Logger
	bus      pubsub.Bus
	registry Registry
	roomID   string
	topic    string

	mu       sync.RWMutex
	members  map[string]entity.PresenceRecord
	onChange func(Event)
	sub      pubsub.Subscription
}

func NewTracker(logger *slog.Logger, bus pubsub.Bus, registry Registry, roomID string) *Tracker {
	return &Tracker{
		logger:   logger.With("component", "presence", "room_id", roomID),
		bus:      bus,
		registry: registry,
		roomID:   roomID,
		topic:    pubsub.RoomTopic(roomID, presenceTopic),
		members:  make(map[string]entity.PresenceRecord),
	}
}

// Start - subscribes to presence edges. onChange runs on the bus delivery goroutine.
func (that *Tracker) Start(ctx context.Context, onChange func(Event)) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.sub != nil {
		return ErrAlreadyStarted
	}

	sub, err := that.bus.Subscribe(ctx, that.topic, that.handleEdge)
	if err != nil {
		return fmt.Errorf("failed to subscribe to presence: %w", err)
	}

	that.sub = sub
	that.onChange = onChange

	return nil
}

func (that *Tracker) handleEdge(data []byte) {
	log := that.logger.With("method", "handleEdge")

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		log.Warn("failed to unmarshal presence edge", "error", err)
		return
	}

	if event.Record.ParticipantID == "" || (event.Kind != EventJoin && event.Kind != EventLeave) {
		log.Warn("dropping presence edge", "kind", event.Kind)
		return
	}

	that.apply(event)
}

// apply - updates the local view and notifies unless the edge changed nothing.
func (that *Tracker) apply(event Event) {
	that.mu.Lock()
	current, known := that.members[event.Record.ParticipantID]

	changed := false
	switch event.Kind {
	case EventJoin:
		changed = !known || current != event.Record
		that.members[event.Record.ParticipantID] = event.Record
	case EventLeave:
		changed = known
		delete(that.members, event.Record.ParticipantID)
	}
	onChange := that.onChange
	that.mu.Unlock()

	if changed && onChange != nil {
		onChange(event)
	}
}

// Join - records the participant and announces it to the room.
func (that *Tracker) Join(ctx context.Context, record entity.PresenceRecord) error {
	record.OnlineSince = entity.MoveTimestamp(record.OnlineSince)

	if err := that.registry.Add(ctx, that.roomID, record); err != nil {
		return fmt.Errorf("failed to add presence: %w", err)
	}

	that.mu.Lock()
	that.members[record.ParticipantID] = record
	that.mu.Unlock()

	return that.publish(ctx, Event{Kind: EventJoin, Record: record})
}

// Leave - removes the participant and announces it. Both steps are attempted.
func (that *Tracker) Leave(ctx context.Context, record entity.PresenceRecord) error {
	var errs []error

	if err := that.registry.Remove(ctx, that.roomID, record.ParticipantID); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove presence: %w", err))
	}

	that.mu.Lock()
	delete(that.members, record.ParticipantID)
	that.mu.Unlock()

	if err := that.publish(ctx, Event{Kind: EventLeave, Record: record}); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (that *Tracker) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal presence edge: %w", err)
	}

	if err = that.bus.Publish(ctx, that.topic, data); err != nil {
		return fmt.Errorf("failed to publish presence edge: %w", err)
	}

	return nil
}

// Sync - replaces the local view with the registry's membership.
func (that *Tracker) Sync(ctx context.Context) ([]entity.PresenceRecord, error) {
	records, err := that.registry.Members(ctx, that.roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to sync presence: %w", err)
	}

	members := make(map[string]entity.PresenceRecord, len(records))
	for _, record := range records {
		members[record.ParticipantID] = record
	}

	that.mu.Lock()
	that.members = members
	onChange := that.onChange
	that.mu.Unlock()

	if onChange != nil {
		onChange(Event{Kind: EventSync})
	}

	return records, nil
}

func (that *Tracker) Members() []entity.PresenceRecord {
	that.mu.RLock()
	defer that.mu.RUnlock()

	members := make([]entity.PresenceRecord, 0, len(that.members))
	for _, record := range that.members {
		members = append(members, record)
	}

	SortRecords(members)

	return members
}

func (that *Tracker) IsOpponentOnline(selfRole string) bool {
	opponent := entity.Opponent(selfRole)

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, record := range that.members {
		if record.Role == opponent {
			return true
		}
	}

	return false
}

// Close - stops receiving edges. It does not announce a leave.
func (that *Tracker) Close() error {
	that.mu.Lock()
	sub := that.sub
	that.sub = nil
	that.onChange = nil
	that.mu.Unlock()

	if sub == nil {
		return nil
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from presence: %w", err)
	}

	return nil
}
