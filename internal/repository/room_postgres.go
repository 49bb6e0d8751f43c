package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const uniqueViolation = "23505"

const roomColumns = `id, code, host_id, guest_id, status, snapshot, created_at, updated_at`

type pgRoom struct {
	pool *pgxpool.Pool
}

func NewPostgresRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &pgRoom{
		pool: pool,
	}
}

func (that *pgRoom) Create(ctx context.Context, room *entity.Room) error {
	snapshot, err := json.Marshal(room.Snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	_, err = that.pool.Exec(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		room.ID, room.Code, room.HostID, room.GuestID, room.Status, snapshot, room.CreatedAt, room.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "rooms_code_key" {
		return ErrRoomCodeTaken
	}

	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	return nil
}

func (that *pgRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	row := that.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)

	return scanRoom(row)
}

func (that *pgRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	row := that.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE code = $1`, code)

	return scanRoom(row)
}

// Modify - locks the row for the duration of fn.
func (that *pgRoom) Modify(ctx context.Context, id string, fn func(room *entity.Room) error) (*entity.Room, error) {
	tx, err := that.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	room, err := scanRoom(tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err = fn(room); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(room.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("could not marshal snapshot: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE rooms SET guest_id = $2, status = $3, snapshot = $4, updated_at = $5 WHERE id = $1`,
		room.ID, room.GuestID, room.Status, snapshot, room.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit room: %w", err)
	}

	return room, nil
}

func scanRoom(row pgx.Row) (*entity.Room, error) {
	var (
		room     entity.Room
		snapshot []byte
	)

	err := row.Scan(&room.ID, &room.Code, &room.HostID, &room.GuestID, &room.Status, &snapshot,
		&room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}

	if err = json.Unmarshal(snapshot, &room.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	room.CreatedAt = room.CreatedAt.UTC()
	room.UpdatedAt = room.UpdatedAt.UTC()

	return &room, nil
}
