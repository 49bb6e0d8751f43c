package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	mockedUseCase "github.com/rocketscienceinc/gomoku-backend/mocks/usecase"
)

var (
	errRedisDown = errors.New("redis down")
	errBusDown   = errors.New("bus down")
	fixedNow     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func fixedCode(code string) Option {
	return WithCodeGenerator(func() (string, error) { return code, nil })
}

func fixedClock() Option {
	return WithClock(func() time.Time { return fixedNow })
}

// modifyOn - makes the mocked Modify run fn against a copy of room, as the real stores do.
func modifyOn(room *entity.Room) func(context.Context, string, func(*entity.Room) error) (*entity.Room, error) {
	return func(_ context.Context, _ string, fn func(*entity.Room) error) (*entity.Room, error) {
		clone := *room
		clone.Snapshot = room.Snapshot.Clone()
		if err := fn(&clone); err != nil {
			return nil, err
		}
		return &clone, nil
	}
}

func finishedState(t *testing.T) *entity.GameState {
	t.Helper()

	state := entity.NewGameState()
	state.Status = entity.StatusPlaying

	moves := []entity.Position{
		{Row: 7, Col: 7}, {Row: 0, Col: 0},
		{Row: 7, Col: 8}, {Row: 0, Col: 2},
		{Row: 7, Col: 9}, {Row: 0, Col: 4},
		{Row: 7, Col: 10}, {Row: 0, Col: 6},
		{Row: 7, Col: 11},
	}

	player := entity.PlayerHost
	for i, move := range moves {
		next, err := gomoku.ApplyMove(state, move.Row, move.Col, player, fixedNow.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		state = next
		player = entity.Opponent(player)
	}

	require.True(t, state.IsFinished())

	return state
}

func TestRoomDirectory_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a waiting room", func(t *testing.T) {
		// Given: a repository accepting the first code
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier, fixedCode("ABC123"), fixedClock())

		mockRoomRepo.EXPECT().
			Create(mock.Anything, mock.AnythingOfType("*entity.Room")).
			Return(nil).
			Once()

		// When: the host creates a room
		room, err := directory.CreateRoom(ctx, "H")

		// Then: the room waits for a guest with an empty board
		require.NoError(t, err)
		assert.Equal(t, "ABC123", room.Code)
		assert.Equal(t, "H", room.HostID)
		assert.Empty(t, room.GuestID)
		assert.Equal(t, entity.StatusWaiting, room.Status)
		assert.NotEmpty(t, room.ID)
		assert.Equal(t, fixedNow, room.CreatedAt)
		assert.Equal(t, entity.NewGameState(), room.Snapshot)
	})

	t.Run("Retries on code collision", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)

		codes := []string{"AAAAAA", "BBBBBB"}
		generator := WithCodeGenerator(func() (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		})
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier, generator)

		mockRoomRepo.EXPECT().
			Create(mock.Anything, mock.MatchedBy(func(room *entity.Room) bool { return room.Code == "AAAAAA" })).
			Return(repository.ErrRoomCodeTaken).
			Once()
		mockRoomRepo.EXPECT().
			Create(mock.Anything, mock.MatchedBy(func(room *entity.Room) bool { return room.Code == "BBBBBB" })).
			Return(nil).
			Once()

		room, err := directory.CreateRoom(ctx, "H")

		require.NoError(t, err)
		assert.Equal(t, "BBBBBB", room.Code)
	})

	t.Run("Gives up after the attempt budget", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier, fixedCode("ABC123"), WithCodeAttempts(3))

		mockRoomRepo.EXPECT().
			Create(mock.Anything, mock.AnythingOfType("*entity.Room")).
			Return(repository.ErrRoomCodeTaken).
			Times(3)

		room, err := directory.CreateRoom(ctx, "H")

		require.ErrorIs(t, err, apperror.ErrCodeGenerationExhausted)
		assert.Nil(t, room)
	})

	t.Run("Storage failure", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier, fixedCode("ABC123"))

		mockRoomRepo.EXPECT().
			Create(mock.Anything, mock.AnythingOfType("*entity.Room")).
			Return(errRedisDown).
			Once()

		_, err := directory.CreateRoom(ctx, "H")

		require.ErrorIs(t, err, errRedisDown)
	})

	t.Run("Missing host", func(t *testing.T) {
		directory := NewRoomDirectory(newLogger(), mockedUseCase.NewMockroomRepo(t), mockedUseCase.NewMockguestNotifier(t))

		_, err := directory.CreateRoom(ctx, "")

		require.ErrorIs(t, err, apperror.ErrInvalidParticipant)
	})
}

func TestRoomDirectory_GetRoomByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Normalizes the code", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockedUseCase.NewMockguestNotifier(t))

		existing := entity.NewRoom("room-1", "ABC123", "H", fixedNow)
		mockRoomRepo.EXPECT().
			GetByCode(mock.Anything, "ABC123").
			Return(existing, nil).
			Once()

		room, err := directory.GetRoomByCode(ctx, " abc123 ")

		require.NoError(t, err)
		assert.Equal(t, existing, room)
	})

	t.Run("Malformed code never reaches storage", func(t *testing.T) {
		directory := NewRoomDirectory(newLogger(), mockedUseCase.NewMockroomRepo(t), mockedUseCase.NewMockguestNotifier(t))

		_, err := directory.GetRoomByCode(ctx, "AB-1")

		require.ErrorIs(t, err, apperror.ErrInvalidRoomCode)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Not found", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockedUseCase.NewMockguestNotifier(t))

		mockRoomRepo.EXPECT().
			GetByCode(mock.Anything, "ZZZ999").
			Return(nil, apperror.ErrRoomNotFound).
			Once()

		_, err := directory.GetRoomByCode(ctx, "ZZZ999")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRoomDirectory_JoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Seats the guest and notifies the host", func(t *testing.T) {
		// Given: a waiting room
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier, fixedClock())

		waiting := entity.NewRoom("room-1", "ABC123", "H", fixedNow.Add(-time.Minute))
		mockRoomRepo.EXPECT().GetByCode(mock.Anything, "ABC123").Return(waiting, nil).Once()
		mockRoomRepo.EXPECT().Modify(mock.Anything, "room-1", mock.Anything).RunAndReturn(modifyOn(waiting)).Once()
		mockNotifier.EXPECT().
			NotifyGuestArrival(mock.Anything, mock.MatchedBy(func(room *entity.Room) bool { return room.GuestID == "G" })).
			Return(nil).
			Once()

		// When: G joins
		room, err := directory.JoinRoom(ctx, "abc123", "G")

		// Then: the room and its snapshot are playing
		require.NoError(t, err)
		assert.Equal(t, "G", room.GuestID)
		assert.Equal(t, entity.StatusPlaying, room.Status)
		assert.Equal(t, entity.StatusPlaying, room.Snapshot.Status)
		assert.Equal(t, fixedNow, room.UpdatedAt)
	})

	t.Run("Notice failure does not undo the join", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier)

		waiting := entity.NewRoom("room-1", "ABC123", "H", fixedNow)
		mockRoomRepo.EXPECT().GetByCode(mock.Anything, "ABC123").Return(waiting, nil).Once()
		mockRoomRepo.EXPECT().Modify(mock.Anything, "room-1", mock.Anything).RunAndReturn(modifyOn(waiting)).Once()
		mockNotifier.EXPECT().NotifyGuestArrival(mock.Anything, mock.Anything).Return(errBusDown).Once()

		room, err := directory.JoinRoom(ctx, "ABC123", "G")

		require.NoError(t, err)
		assert.Equal(t, "G", room.GuestID)
	})

	t.Run("Same guest rejoins without a notice", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier)

		playing := entity.NewRoom("room-1", "ABC123", "H", fixedNow)
		playing.GuestID = "G"
		playing.Status = entity.StatusPlaying
		mockRoomRepo.EXPECT().GetByCode(mock.Anything, "ABC123").Return(playing, nil).Once()
		mockRoomRepo.EXPECT().Modify(mock.Anything, "room-1", mock.Anything).RunAndReturn(modifyOn(playing)).Once()

		room, err := directory.JoinRoom(ctx, "ABC123", "G")

		require.NoError(t, err)
		assert.Equal(t, playing, room)
	})

	t.Run("Another guest finds the room full", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		mockNotifier := mockedUseCase.NewMockguestNotifier(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockNotifier)

		playing := entity.NewRoom("room-1", "ABC123", "H", fixedNow)
		playing.GuestID = "G"
		playing.Status = entity.StatusPlaying
		mockRoomRepo.EXPECT().GetByCode(mock.Anything, "ABC123").Return(playing, nil).Once()
		mockRoomRepo.EXPECT().Modify(mock.Anything, "room-1", mock.Anything).RunAndReturn(modifyOn(playing)).Once()

		_, err := directory.JoinRoom(ctx, "ABC123", "G2")

		require.ErrorIs(t, err, apperror.ErrRoomFull)
	})

	t.Run("Unknown room", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockedUseCase.NewMockguestNotifier(t))

		mockRoomRepo.EXPECT().GetByCode(mock.Anything, "ZZZ999").Return(nil, apperror.ErrRoomNotFound).Once()

		_, err := directory.JoinRoom(ctx, "ZZZ999", "G")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRoomDirectory_FinishRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores the terminal snapshot", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockedUseCase.NewMockguestNotifier(t), fixedClock())

		playing := entity.NewRoom("room-1", "ABC123", "H", fixedNow)
		playing.GuestID = "G"
		playing.Status = entity.StatusPlaying
		mockRoomRepo.EXPECT().Modify(mock.Anything, "room-1", mock.Anything).RunAndReturn(modifyOn(playing)).Once()

		state := finishedState(t)

		room, err := directory.FinishRoom(ctx, "room-1", state)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusFinished, room.Status)
		assert.Equal(t, state, room.Snapshot)
		assert.Equal(t, entity.PlayerHost, room.Snapshot.Winner)
	})

	t.Run("Already finished room is left alone", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockedUseCase.NewMockguestNotifier(t))

		finished := entity.NewRoom("room-1", "ABC123", "H", fixedNow)
		finished.GuestID = "G"
		finished.Status = entity.StatusFinished
		finished.Snapshot = finishedState(t)
		mockRoomRepo.EXPECT().Modify(mock.Anything, "room-1", mock.Anything).RunAndReturn(modifyOn(finished)).Once()

		room, err := directory.FinishRoom(ctx, "room-1", finishedState(t))

		require.NoError(t, err)
		assert.Equal(t, finished, room)
	})

	t.Run("Rejects forged or unfinished states", func(t *testing.T) {
		directory := NewRoomDirectory(newLogger(), mockedUseCase.NewMockroomRepo(t), mockedUseCase.NewMockguestNotifier(t))

		forged := finishedState(t)
		forged.Winner = entity.PlayerGuest

		_, err := directory.FinishRoom(ctx, "room-1", forged)
		require.ErrorIs(t, err, apperror.ErrCorruptState)

		_, err = directory.FinishRoom(ctx, "room-1", nil)
		require.ErrorIs(t, err, apperror.ErrCorruptState)

		unfinished := entity.NewGameState()
		unfinished.Status = entity.StatusPlaying

		_, err = directory.FinishRoom(ctx, "room-1", unfinished)
		require.ErrorIs(t, err, apperror.ErrGameNotFinished)
	})

	t.Run("Waiting room cannot finish", func(t *testing.T) {
		mockRoomRepo := mockedUseCase.NewMockroomRepo(t)
		directory := NewRoomDirectory(newLogger(), mockRoomRepo, mockedUseCase.NewMockguestNotifier(t))

		waiting := entity.NewRoom("room-1", "ABC123", "H", fixedNow)
		mockRoomRepo.EXPECT().Modify(mock.Anything, "room-1", mock.Anything).RunAndReturn(modifyOn(waiting)).Once()

		_, err := directory.FinishRoom(ctx, "room-1", finishedState(t))

		require.ErrorIs(t, err, apperror.ErrRoomNotPlaying)
	})
}

func TestRoomDirectory_Scenario(t *testing.T) {
	ctx := context.Background()

	// Given: room "ABC123" created by host H on a real in-memory store
	directory := NewRoomDirectory(newLogger(), repository.NewMemoryRoomRepository(), noopNotifier{}, fixedCode("ABC123"))

	created, err := directory.CreateRoom(ctx, "H")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusWaiting, created.Status)

	// When: guest G joins
	joined, err := directory.JoinRoom(ctx, "ABC123", "G")

	// Then: the room flips from waiting to playing
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPlaying, joined.Status)

	// When: a second guest G2 tries to join
	_, err = directory.JoinRoom(ctx, "ABC123", "G2")

	// Then: the room is full, and the host reconnecting is still fine
	require.ErrorIs(t, err, apperror.ErrRoomFull)

	rejoined, err := directory.JoinRoom(ctx, "ABC123", "H")
	require.NoError(t, err)
	assert.Equal(t, "G", rejoined.GuestID)

	byID, err := directory.GetRoomByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, joined, byID)
}

type noopNotifier struct{}

func (noopNotifier) NotifyGuestArrival(context.Context, *entity.Room) error {
	return nil
}
