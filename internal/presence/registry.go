package presence

import (
	"context"
	"sort"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Registry holds the full membership of each room. Edges on the bus can be missed; the registry
// is what Sync reads to correct the local view.
type Registry interface {
	Add(ctx context.Context, roomID string, record entity.PresenceRecord) error
	Remove(ctx context.Context, roomID, participantID string) error
	Members(ctx context.Context, roomID string) ([]entity.PresenceRecord, error)
}

type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]entity.PresenceRecord
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		rooms: make(map[string]map[string]entity.PresenceRecord),
	}
}

func (that *MemoryRegistry) Add(_ context.Context, roomID string, record entity.PresenceRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.rooms[roomID] == nil {
		that.rooms[roomID] = make(map[string]entity.PresenceRecord)
	}
	that.rooms[roomID][record.ParticipantID] = record

	return nil
}

func (that *MemoryRegistry) Remove(_ context.Context, roomID, participantID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms[roomID], participantID)
	if len(that.rooms[roomID]) == 0 {
		delete(that.rooms, roomID)
	}

	return nil
}

func (that *MemoryRegistry) Members(_ context.Context, roomID string) ([]entity.PresenceRecord, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	members := make([]entity.PresenceRecord, 0, len(that.rooms[roomID]))
	for _, record := range that.rooms[roomID] {
		members = append(members, record)
	}

	SortRecords(members)

	return members, nil
}

// SortRecords - orders records by role, host first, then by participant id.
func SortRecords(records []entity.PresenceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Role != records[j].Role {
			return records[i].Role == entity.PlayerHost
		}
		return records[i].ParticipantID < records[j].ParticipantID
	})
}
