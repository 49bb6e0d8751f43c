package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const maxModifyAttempts = 5

// createRoomScript claims the code and writes the room in one step, so a code never points at a missing room.
var createRoomScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

var (
	ErrRoomCodeTaken = errors.New("room code is already taken")
	ErrConflict      = errors.New("room was modified concurrently")
)

// RoomRepository stores rooms by id and by code. Modify is the only read-modify-write path and is
// atomic per room.
type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	Modify(ctx context.Context, id string, fn func(room *entity.Room) error) (*entity.Room, error)
}

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func roomKey(id string) string {
	return "room:" + id
}

func roomCodeKey(code string) string {
	return "roomcode:" + code
}

func (that *dbRoom) Create(ctx context.Context, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	claimed, err := createRoomScript.Run(ctx, that.client,
		[]string{roomCodeKey(room.Code), roomKey(room.ID)},
		room.ID, roomJSON,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	if claimed == 0 {
		return ErrRoomCodeTaken
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	return decodeRoom(response)
}

func (that *dbRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	id, err := that.client.Get(ctx, roomCodeKey(code)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return that.GetByID(ctx, id)
}

// Modify - optimistic WATCH/MULTI transaction, retried when another writer got in between.
func (that *dbRoom) Modify(ctx context.Context, id string, fn func(room *entity.Room) error) (*entity.Room, error) {
	key := roomKey(id)

	var room *entity.Room
	txf := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrRoomNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get room: %w", err)
		}

		room, err = decodeRoom(response)
		if err != nil {
			return err
		}

		if err = fn(room); err != nil {
			return err
		}

		roomJSON, err := json.Marshal(room)
		if err != nil {
			return fmt.Errorf("could not marshal room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, roomJSON, 0)
			return nil
		})
		return err
	}

	for range maxModifyAttempts {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return room, nil
	}

	return nil, ErrConflict
}

func decodeRoom(response string) (*entity.Room, error) {
	var room entity.Room
	if err := json.Unmarshal([]byte(response), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}
