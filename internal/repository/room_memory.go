package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// memoryRoom keeps rooms in process. Stored values are deep copies, so callers never alias them.
type memoryRoom struct {
	mu     sync.Mutex
	byID   map[string]*entity.Room
	byCode map[string]string
}

func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoom{
		byID:   make(map[string]*entity.Room),
		byCode: make(map[string]string),
	}
}

func (that *memoryRoom) Create(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.byCode[room.Code]; ok {
		return ErrRoomCodeTaken
	}

	that.byID[room.ID] = copyRoom(room)
	that.byCode[room.Code] = room.ID

	return nil
}

func (that *memoryRoom) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.byID[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return copyRoom(room), nil
}

func (that *memoryRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	that.mu.Lock()
	id, ok := that.byCode[code]
	that.mu.Unlock()

	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return that.GetByID(ctx, id)
}

func (that *memoryRoom) Modify(_ context.Context, id string, fn func(room *entity.Room) error) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	stored, ok := that.byID[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	room := copyRoom(stored)
	if err := fn(room); err != nil {
		return nil, err
	}

	that.byID[id] = copyRoom(room)

	return room, nil
}

func copyRoom(room *entity.Room) *entity.Room {
	clone := *room
	clone.Snapshot = room.Snapshot.Clone()
	return &clone
}
