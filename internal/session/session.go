// Package session keeps one participant's copy of a game in step with the other seat.
//
// A Session is an actor: a single goroutine owns the game state and reacts to events (local move
// requests, envelopes from the peer, publish results, presence edges, lobby notices, timers).
// Local moves are applied optimistically, then published; a failed publish restores the exact
// previous state.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/channel"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/presence"
	"github.com/rocketscienceinc/gomoku-backend/internal/pubsub"
)

type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseMyTurn                Phase = "my_turn"
	PhaseOptimisticallyApplied Phase = "optimistically_applied"
	PhaseBroadcasting          Phase = "broadcasting"
	PhaseWaitingOpponent       Phase = "waiting_opponent"
	PhaseRolledBack            Phase = "rolled_back"
	PhaseFinished              Phase = "finished"
)

const (
	NoticeGuestArrived    = "guest_arrived"
	NoticeOpponentOnline  = "opponent_online"
	NoticeOpponentOffline = "opponent_offline"
	NoticeOpponentIdle    = "opponent_idle"
	NoticeSendFailed      = "send_failed"
	NoticeResynced        = "resynced"
)

var ErrAlreadyStarted = errors.New("session is already started")

const (
	defaultPublishTimeout = 5 * time.Second
	eventBuffer           = 64
)

type Notice struct {
	Kind   string
	Detail string
}

type MoveChannel interface {
	Subscribe(ctx context.Context, handler func(*channel.Envelope)) error
	PublishMove(ctx context.Context, event entity.MoveEvent) error
	RequestResync(ctx context.Context, historyLength int, force bool) error
	PublishState(ctx context.Context, state *entity.GameState) error
	Close() error
}

type PresenceTracker interface {
	Start(ctx context.Context, onChange func(presence.Event)) error
	Join(ctx context.Context, record entity.PresenceRecord) error
	Leave(ctx context.Context, record entity.PresenceRecord) error
	Sync(ctx context.Context) ([]entity.PresenceRecord, error)
	IsOpponentOnline(selfRole string) bool
	Close() error
}

type Lobby interface {
	Watch(ctx context.Context, roomID string, handler func(channel.GuestArrival)) (pubsub.Subscription, error)
}

type Directory interface {
	GetRoomByID(ctx context.Context, id string) (*entity.Room, error)
	FinishRoom(ctx context.Context, roomID string, state *entity.GameState) (*entity.Room, error)
}

// Config wires a Session. Callbacks run on the event loop and must not call MakeMove or Leave.
type Config struct {
	Room *entity.Room
	Self entity.Participant

	Moves     MoveChannel
	Presence  PresenceTracker
	Lobby     Lobby
	Directory Directory

	// Conn is the connection the session owns; Leave closes it.
	Conn io.Closer

	Logger *slog.Logger
	Clock  func() time.Time

	PublishTimeout time.Duration
	// TurnTimeout of zero waits on the opponent forever.
	TurnTimeout time.Duration

	OnState    func(state *entity.GameState, phase Phase)
	OnFinished func(state *entity.GameState)
	OnNotice   func(notice Notice)
}

type pendingMove struct {
	prev  *entity.GameState
	move  entity.MoveEvent
	reply chan error
}

type Session struct {
	cfg    Config
	logger *slog.Logger
	record entity.PresenceRecord

	events    chan event
	quit      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	leaveOnce sync.Once
	started   bool

	// base is the context for background publishes; it is never cancelled by Leave.
	base context.Context

	viewMu sync.RWMutex
	view   struct {
		state          *entity.GameState
		phase          Phase
		opponentOnline bool
	}

	// owned by the event loop
	state         *entity.GameState
	phase         Phase
	pending       *pendingMove
	deferred      []*channel.Envelope
	finishedFired bool
	opponentID    string
	turnSeq       uint64
	turnTimer     *time.Timer
	lobbySub      pubsub.Subscription
}

func New(cfg Config) (*Session, error) {
	if cfg.Room == nil || cfg.Moves == nil || cfg.Presence == nil {
		return nil, errors.New("session needs a room, a move channel and a presence tracker")
	}

	role, ok := cfg.Room.RoleOf(cfg.Self.ID)
	if !ok || role != cfg.Self.Role || cfg.Self.RoomID != cfg.Room.ID {
		return nil, fmt.Errorf("%w: %s is not seated as %s", apperror.ErrInvalidParticipant, cfg.Self.ID, cfg.Self.Role)
	}

	state := cfg.Room.Snapshot.Clone()
	if state == nil {
		state = entity.NewGameState()
	}

	if err := gomoku.Validate(state); err != nil {
		return nil, fmt.Errorf("failed to load room snapshot: %w", err)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}

	that := &Session{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "session", "room_id", cfg.Room.ID, "role", cfg.Self.Role),
		record: entity.PresenceRecord{ParticipantID: cfg.Self.ID, Role: cfg.Self.Role},
		events: make(chan event, eventBuffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		base:   context.Background(),
		state:  state,
	}

	if cfg.Self.Role == entity.PlayerHost {
		that.opponentID = cfg.Room.GuestID
	} else {
		that.opponentID = cfg.Room.HostID
	}

	that.phase = that.derivePhase()
	// a game that was already over when loaded is not a transition
	that.finishedFired = state.IsFinished()
	that.publishView()

	return that, nil
}

// Start - subscribes to the room, announces presence and starts the event loop.
func (that *Session) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	that.startOnce.Do(func() {
		err = that.start(ctx)
	})
	return err
}

func (that *Session) start(ctx context.Context) error {
	log := that.logger.With("method", "Start")

	that.base = context.WithoutCancel(ctx)

	if err := that.cfg.Moves.Subscribe(ctx, func(envelope *channel.Envelope) {
		that.send(remoteEnvelopeEvent{envelope: envelope})
	}); err != nil {
		return fmt.Errorf("failed to subscribe to moves: %w", err)
	}

	if err := that.cfg.Presence.Start(ctx, func(change presence.Event) {
		that.send(presenceEvent{change: change})
	}); err != nil {
		_ = that.cfg.Moves.Close()
		return fmt.Errorf("failed to start presence: %w", err)
	}

	if that.phase == PhaseIdle && that.cfg.Lobby != nil {
		sub, err := that.cfg.Lobby.Watch(ctx, that.cfg.Room.ID, func(arrival channel.GuestArrival) {
			that.send(guestArrivalEvent{arrival: arrival})
		})
		if err != nil {
			log.Warn("failed to watch lobby, relying on presence", "error", err)
		} else {
			that.lobbySub = sub
		}
	}

	that.record.OnlineSince = that.cfg.Clock()
	if err := that.cfg.Presence.Join(ctx, that.record); err != nil {
		log.Warn("failed to announce presence", "error", err)
	}

	if _, err := that.cfg.Presence.Sync(ctx); err != nil {
		log.Warn("failed to sync presence", "error", err)
	}

	// arms the turn timer when the opponent is to move
	that.settle()

	that.started = true
	go that.run()

	// catch up with whatever the peer did while this seat was away
	if that.state.IsPlaying() {
		that.send(resyncEvent{})
	}

	log.Info("session started", "phase", that.Phase(), "moves", that.state.MoveCount())

	return nil
}

// MakeMove - places a stone for this seat. It returns once the move is published, or with the
// state rolled back and an error wrapping apperror.ErrSendFailed when it could not be.
// Cancelling ctx stops the wait, not the publish.
func (that *Session) MakeMove(ctx context.Context, row, col int) error {
	reply := make(chan error, 1)

	if !that.send(localMoveEvent{row: row, col: col, reply: reply}) {
		return apperror.ErrSessionClosed
	}

	select {
	case err := <-reply:
		return err
	case <-that.done:
		return apperror.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resync - corrects presence and reloads the room snapshot, then asks the peer for its state.
func (that *Session) Resync(ctx context.Context) error {
	var errs []error

	if _, err := that.cfg.Presence.Sync(ctx); err != nil {
		errs = append(errs, err)
	}

	if that.cfg.Directory != nil {
		room, err := that.cfg.Directory.GetRoomByID(ctx, that.cfg.Room.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to reload room: %w", err))
		} else if !that.send(snapshotEvent{room: room}) {
			return apperror.ErrSessionClosed
		}
	}

	if !that.send(resyncEvent{force: true}) {
		return apperror.ErrSessionClosed
	}

	return errors.Join(errs...)
}

func (that *Session) State() *entity.GameState {
	that.viewMu.RLock()
	defer that.viewMu.RUnlock()
	return that.view.state.Clone()
}

func (that *Session) Phase() Phase {
	that.viewMu.RLock()
	defer that.viewMu.RUnlock()
	return that.view.phase
}

func (that *Session) OpponentOnline() bool {
	that.viewMu.RLock()
	defer that.viewMu.RUnlock()
	return that.view.opponentOnline
}

func (that *Session) Role() string {
	return that.cfg.Self.Role
}

// Done - closed once the event loop has stopped.
func (that *Session) Done() <-chan struct{} {
	return that.done
}

// Leave - stops the loop, unsubscribes, untracks presence and releases the connection.
// A publish in flight is not cancelled; its result is ignored. Calling Leave again is a no-op.
func (that *Session) Leave(ctx context.Context) error {
	var errs []error

	that.leaveOnce.Do(func() {
		that.startOnce.Do(func() {})

		close(that.quit)
		if that.started {
			<-that.done
		} else {
			close(that.done)
		}

		if err := that.cfg.Moves.Close(); err != nil {
			errs = append(errs, err)
		}

		if that.lobbySub != nil {
			if err := that.lobbySub.Unsubscribe(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop watching lobby: %w", err))
			}
		}

		if err := that.cfg.Presence.Leave(ctx, that.record); err != nil {
			errs = append(errs, err)
		}

		if err := that.cfg.Presence.Close(); err != nil {
			errs = append(errs, err)
		}

		if that.cfg.Conn != nil {
			if err := that.cfg.Conn.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to release connection: %w", err))
			}
		}

		that.logger.Info("left room")
	})

	return errors.Join(errs...)
}

// send - hands an event to the loop; false once the session is closed.
func (that *Session) send(ev event) bool {
	select {
	case <-that.quit:
		return false
	default:
	}

	select {
	case that.events <- ev:
		return true
	case <-that.quit:
		return false
	}
}
