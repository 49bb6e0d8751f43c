package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/channel"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/presence"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newServer(t *testing.T, opts ...usecase.Option) (*httptest.Server, *Client) {
	t.Helper()

	bus := pubsub.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	directory := usecase.NewRoomDirectory(
		newLogger(),
		repository.NewMemoryRoomRepository(),
		channel.NewLobby(newLogger(), bus),
		opts...,
	)

	srv := httptest.NewServer(New(newLogger(), directory, presence.NewMemoryRegistry()).Routes())
	t.Cleanup(srv.Close)

	return srv, NewClient(srv.URL)
}

func fixedCode(code string) usecase.Option {
	return usecase.WithCodeGenerator(func() (string, error) { return code, nil })
}

func TestServer_Ping(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestServer_RoomLifecycle(t *testing.T) {
	ctx := context.Background()
	_, client := newServer(t, fixedCode("ABC123"))

	// Given: a host creates a room
	room, err := client.CreateRoom(ctx, "host-1")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", room.Code)
	assert.Equal(t, entity.StatusWaiting, room.Status)

	// When: a guest joins with a lower case code
	joined, err := client.JoinRoom(ctx, "abc123", "guest-1")
	require.NoError(t, err)

	// Then: the room is playing with both seats taken
	assert.Equal(t, entity.StatusPlaying, joined.Status)
	assert.Equal(t, "guest-1", joined.GuestID)

	byID, err := client.GetRoomByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, joined.GuestID, byID.GuestID)

	byCode, err := client.GetRoomByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, room.ID, byCode.ID)

	// And: a third participant is turned away
	_, err = client.JoinRoom(ctx, "ABC123", "guest-2")
	assert.ErrorIs(t, err, apperror.ErrRoomFull)

	// When: the winner reports the final board
	state := entity.NewGameState()
	state.Status = entity.StatusPlaying
	player := entity.PlayerHost
	for i, cell := range []entity.Position{
		{Row: 7, Col: 7}, {Row: 0, Col: 0}, {Row: 7, Col: 8}, {Row: 0, Col: 2}, {Row: 7, Col: 9},
		{Row: 0, Col: 4}, {Row: 7, Col: 10}, {Row: 0, Col: 6}, {Row: 7, Col: 11},
	} {
		state, err = gomoku.ApplyMove(state, cell.Row, cell.Col, player, entity.MoveTimestamp(time.Unix(int64(i), 0)))
		require.NoError(t, err)
		player = entity.Opponent(player)
	}

	finished, err := client.FinishRoom(ctx, room.ID, state)
	require.NoError(t, err)

	// Then: the snapshot survives the round trip
	assert.Equal(t, entity.StatusFinished, finished.Status)
	assert.Equal(t, state, finished.Snapshot)
}

func TestServer_Errors(t *testing.T) {
	ctx := context.Background()
	srv, client := newServer(t, fixedCode("ABC123"))

	t.Run("Unknown code is not found", func(t *testing.T) {
		_, err := client.GetRoomByCode(ctx, "ZZZ999")
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Malformed code is a bad request", func(t *testing.T) {
		_, err := client.JoinRoom(ctx, "AB", "guest-1")
		assert.ErrorIs(t, err, apperror.ErrInvalidRoomCode)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)

		resp, err := http.Get(srv.URL + "/rooms/AB")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing host is a bad request", func(t *testing.T) {
		_, err := client.CreateRoom(ctx, "")
		assert.ErrorIs(t, err, apperror.ErrInvalidParticipant)
	})

	t.Run("Unfinished game cannot be stored", func(t *testing.T) {
		room, err := client.CreateRoom(ctx, "host-1")
		require.NoError(t, err)

		state := entity.NewGameState()
		state.Status = entity.StatusPlaying

		_, err = client.FinishRoom(ctx, room.ID, state)
		assert.ErrorIs(t, err, apperror.ErrGameNotFinished)
	})

	t.Run("Code exhaustion is unavailable", func(t *testing.T) {
		_, err := client.CreateRoom(ctx, "host-2")
		require.ErrorIs(t, err, apperror.ErrCodeGenerationExhausted)
	})

	t.Run("Broken body is a bad request", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/rooms", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_Presence(t *testing.T) {
	ctx := context.Background()
	_, client := newServer(t)

	at := entity.MoveTimestamp(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	guest := entity.PresenceRecord{ParticipantID: "guest-1", Role: entity.PlayerGuest, OnlineSince: at}
	host := entity.PresenceRecord{ParticipantID: "host-1", Role: entity.PlayerHost, OnlineSince: at}

	require.NoError(t, client.Add(ctx, "room-1", guest))
	require.NoError(t, client.Add(ctx, "room-1", host))

	members, err := client.Members(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []entity.PresenceRecord{host, guest}, members)

	require.NoError(t, client.Remove(ctx, "room-1", "guest-1"))

	members, err = client.Members(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []entity.PresenceRecord{host}, members)

	assert.Error(t, client.Add(ctx, "room-1", entity.PresenceRecord{ParticipantID: "x", Role: "referee"}))
}

func TestClient_TracksPresenceForASession(t *testing.T) {
	ctx := context.Background()
	_, client := newServer(t)

	bus := pubsub.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	// Given: two trackers sharing the HTTP registry
	hostTracker := presence.NewTracker(newLogger(), bus, client, "room-1")
	guestTracker := presence.NewTracker(newLogger(), bus, client, "room-1")
	require.NoError(t, hostTracker.Start(ctx, nil))
	t.Cleanup(func() { _ = hostTracker.Close() })

	// When: the guest joined before the host started listening
	require.NoError(t, guestTracker.Join(ctx, entity.PresenceRecord{ParticipantID: "guest-1", Role: entity.PlayerGuest}))

	_, err := hostTracker.Sync(ctx)
	require.NoError(t, err)

	// Then: the host sees its opponent
	assert.True(t, hostTracker.IsOpponentOnline(entity.PlayerHost))
}
