package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

const defaultCodeAttempts = 10

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	Modify(ctx context.Context, id string, fn func(room *entity.Room) error) (*entity.Room, error)
}

type guestNotifier interface {
	NotifyGuestArrival(ctx context.Context, room *entity.Room) error
}

// RoomDirectory creates rooms, seats guests and keeps the last authoritative snapshot.
// It is touched at join time and when a game finishes, never per move.
type RoomDirectory struct {
	logger   *slog.Logger
	roomRepo roomRepo
	notifier guestNotifier

	generateCode func() (string, error)
	generateID   func() string
	codeAttempts int
	now          func() time.Time
}

type Option func(*RoomDirectory)

func WithCodeGenerator(generate func() (string, error)) Option {
	return func(that *RoomDirectory) {
		that.generateCode = generate
	}
}

func WithCodeAttempts(attempts int) Option {
	return func(that *RoomDirectory) {
		if attempts > 0 {
			that.codeAttempts = attempts
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(that *RoomDirectory) {
		that.now = now
	}
}

func NewRoomDirectory(logger *slog.Logger, roomRepo roomRepo, notifier guestNotifier, opts ...Option) *RoomDirectory {
	directory := &RoomDirectory{
		logger:       logger.With("component", "room-directory"),
		roomRepo:     roomRepo,
		notifier:     notifier,
		generateCode: pkg.GenerateRoomCode,
		generateID:   pkg.GenerateRoomID,
		codeAttempts: defaultCodeAttempts,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(directory)
	}

	return directory
}

// CreateRoom - opens a waiting room for the host under a fresh code.
func (that *RoomDirectory) CreateRoom(ctx context.Context, hostID string) (*entity.Room, error) {
	log := that.logger.With("method", "CreateRoom")

	if hostID == "" {
		return nil, apperror.ErrInvalidParticipant
	}

	for attempt := 1; attempt <= that.codeAttempts; attempt++ {
		code, err := that.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		room := entity.NewRoom(that.generateID(), code, hostID, that.timestamp())

		err = that.roomRepo.Create(ctx, room)
		if errors.Is(err, repository.ErrRoomCodeTaken) {
			log.Debug("room code collision", "code", code, "attempt", attempt)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		log.Info("room created", "room_id", room.ID, "code", room.Code)

		return room, nil
	}

	log.Error("room code space exhausted", "attempts", that.codeAttempts)

	return nil, apperror.ErrCodeGenerationExhausted
}

func (that *RoomDirectory) GetRoomByCode(ctx context.Context, code string) (*entity.Room, error) {
	code, err := pkg.NormalizeRoomCode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrRoomNotFound, err)
	}

	room, err := that.roomRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return room, nil
}

// GetRoomByID - used for snapshot reload during recovery.
func (that *RoomDirectory) GetRoomByID(ctx context.Context, id string) (*entity.Room, error) {
	room, err := that.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	return room, nil
}

// JoinRoom - seats the guest. Rejoining by the same guest, or by the host, returns the room unchanged.
func (that *RoomDirectory) JoinRoom(ctx context.Context, code, guestID string) (*entity.Room, error) {
	log := that.logger.With("method", "JoinRoom")

	if guestID == "" {
		return nil, apperror.ErrInvalidParticipant
	}

	found, err := that.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var joined bool
	room, err := that.roomRepo.Modify(ctx, found.ID, func(room *entity.Room) error {
		joined = false

		if _, seated := room.RoleOf(guestID); seated {
			return nil
		}

		if room.HasGuest() || !room.IsWaiting() {
			return apperror.ErrRoomFull
		}

		room.GuestID = guestID
		room.Status = entity.StatusPlaying
		if room.Snapshot == nil {
			room.Snapshot = entity.NewGameState()
		}
		room.Snapshot.Status = entity.StatusPlaying
		room.UpdatedAt = that.timestamp()
		joined = true

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	if !joined {
		return room, nil
	}

	log.Info("guest joined", "room_id", room.ID, "guest_id", guestID)

	// the seat is already durable; the notice only wakes an idle host
	if err = that.notifier.NotifyGuestArrival(ctx, room); err != nil {
		log.Warn("failed to notify guest arrival", "room_id", room.ID, "error", err)
	}

	return room, nil
}

// FinishRoom - stores the terminal snapshot. A room that is already finished is returned as is.
func (that *RoomDirectory) FinishRoom(ctx context.Context, roomID string, state *entity.GameState) (*entity.Room, error) {
	log := that.logger.With("method", "FinishRoom")

	if err := gomoku.Validate(state); err != nil {
		return nil, fmt.Errorf("failed to validate final state: %w", err)
	}

	if !state.IsFinished() {
		return nil, apperror.ErrGameNotFinished
	}

	room, err := that.roomRepo.Modify(ctx, roomID, func(room *entity.Room) error {
		if room.IsFinished() {
			return nil
		}

		if !room.IsPlaying() {
			return apperror.ErrRoomNotPlaying
		}

		room.Status = entity.StatusFinished
		room.Snapshot = state.Clone()
		room.UpdatedAt = that.timestamp()

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finish room: %w", err)
	}

	log.Info("room finished", "room_id", room.ID, "winner", room.Snapshot.Winner)

	return room, nil
}

func (that *RoomDirectory) timestamp() time.Time {
	return entity.MoveTimestamp(that.now())
}
