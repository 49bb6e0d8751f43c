package channel

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
)

const waitFor = 2 * time.Second

var (
	host  = entity.Participant{ID: "host-1", Role: entity.PlayerHost, RoomID: "room-1"}
	guest = entity.Participant{ID: "guest-1", Role: entity.PlayerGuest, RoomID: "room-1"}
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type received struct {
	mu        sync.Mutex
	envelopes []*Envelope
}

func (that *received) handle(envelope *Envelope) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.envelopes = append(that.envelopes, envelope)
}

func (that *received) get() []*Envelope {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]*Envelope(nil), that.envelopes...)
}

type failingBus struct {
	pubsub.Bus
}

func (failingBus) Publish(context.Context, string, []byte) error {
	return errors.New("connection reset")
}

func TestMoveChannel_SelfExclusion(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	// Given: both seats subscribed to the room
	hostChannel, guestChannel := New(newLogger(), bus, host), New(newLogger(), bus, guest)
	hostGot, guestGot := &received{}, &received{}
	require.NoError(t, hostChannel.Subscribe(ctx, hostGot.handle))
	require.NoError(t, guestChannel.Subscribe(ctx, guestGot.handle))

	// When: the host publishes a move
	at := entity.MoveTimestamp(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	move := entity.MoveEvent{Row: 7, Col: 7, Player: entity.PlayerHost, MoveIndex: 0, Timestamp: at}
	require.NoError(t, hostChannel.PublishMove(ctx, move))

	// Then: only the guest receives it
	require.Eventually(t, func() bool { return len(guestGot.get()) == 1 }, waitFor, 10*time.Millisecond)

	envelope := guestGot.get()[0]
	assert.Equal(t, KindMove, envelope.Kind)
	assert.Equal(t, host.ID, envelope.Sender)
	assert.Equal(t, entity.PlayerHost, envelope.Role)
	require.NotNil(t, envelope.Move)
	assert.Equal(t, move, *envelope.Move)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, hostGot.get())
}

func TestMoveChannel_Resync(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	hostChannel, guestChannel := New(newLogger(), bus, host), New(newLogger(), bus, guest)
	hostGot := &received{}
	require.NoError(t, hostChannel.Subscribe(ctx, hostGot.handle))

	state := entity.NewGameState()
	state.Status = entity.StatusPlaying

	require.NoError(t, guestChannel.RequestResync(ctx, 3, true))
	require.NoError(t, guestChannel.PublishState(ctx, state))

	require.Eventually(t, func() bool { return len(hostGot.get()) == 2 }, waitFor, 10*time.Millisecond)

	request, response := hostGot.get()[0], hostGot.get()[1]
	assert.Equal(t, KindResyncRequest, request.Kind)
	assert.Equal(t, 3, request.HistoryLength)
	assert.True(t, request.Force)

	assert.Equal(t, KindResyncState, response.Kind)
	assert.Equal(t, state, response.State)
}

func TestMoveChannel_DropsMalformedEnvelopes(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	hostChannel := New(newLogger(), bus, host)
	got := &received{}
	require.NoError(t, hostChannel.Subscribe(ctx, got.handle))

	topic := pubsub.RoomTopic(host.RoomID, movesTopic)
	for _, raw := range []string{
		`not json`,
		`{"kind":"move","sender":"guest-1","role":"guest"}`,
		`{"kind":"move","sender":"guest-1","role":"guest","move":{"row":15,"col":0,"player":"guest","move_index":1}}`,
		`{"kind":"move","sender":"guest-1","role":"guest","move":{"row":1,"col":0,"player":"host","move_index":1}}`,
		`{"kind":"resync_state","sender":"guest-1","role":"guest"}`,
		`{"kind":"chat","sender":"guest-1","role":"guest"}`,
		`{"kind":"resync_request","sender":"guest-1","role":"referee"}`,
	} {
		require.NoError(t, bus.Publish(ctx, topic, []byte(raw)))
	}

	valid := `{"kind":"resync_request","sender":"guest-1","role":"guest","history_length":2}`
	require.NoError(t, bus.Publish(ctx, topic, []byte(valid)))

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, waitFor, 10*time.Millisecond)
	assert.Equal(t, 2, got.get()[0].HistoryLength)
}

func TestMoveChannel_PublishFailure(t *testing.T) {
	channel := New(newLogger(), failingBus{}, host)

	err := channel.PublishMove(context.Background(), entity.MoveEvent{Row: 1, Col: 1, Player: entity.PlayerHost})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrSendFailed)
}

func TestMoveChannel_SubscribeAndClose(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	guestChannel := New(newLogger(), bus, guest)
	got := &received{}

	require.NoError(t, guestChannel.Subscribe(ctx, got.handle))
	assert.ErrorIs(t, guestChannel.Subscribe(ctx, got.handle), ErrAlreadySubscribed)

	require.NoError(t, guestChannel.Close())
	require.NoError(t, guestChannel.Close())

	hostChannel := New(newLogger(), bus, host)
	require.NoError(t, hostChannel.RequestResync(ctx, 0, false))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, got.get())
}

func TestLobby_GuestArrival(t *testing.T) {
	ctx := context.Background()
	bus := pubsub.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	lobby := NewLobby(newLogger(), bus)

	// Given: a host watching its room and another room's lobby
	var mu sync.Mutex
	var arrivals []GuestArrival
	sub, err := lobby.Watch(ctx, "room-1", func(arrival GuestArrival) {
		mu.Lock()
		defer mu.Unlock()
		arrivals = append(arrivals, arrival)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	room := entity.NewRoom("room-1", "ABC123", "host-1", now)
	room.GuestID = "guest-1"
	room.Status = entity.StatusPlaying

	other := entity.NewRoom("room-2", "XYZ789", "host-2", now)
	other.GuestID = "guest-2"

	// When: guests join both rooms
	require.NoError(t, lobby.NotifyGuestArrival(ctx, other))
	require.NoError(t, lobby.NotifyGuestArrival(ctx, room))

	// Then: only this room's arrival is delivered
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(arrivals) == 1
	}, waitFor, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, GuestArrival{
		RoomID:   "room-1",
		GuestID:  "guest-1",
		Status:   entity.StatusPlaying,
		JoinedAt: now,
	}, arrivals[0])
}
