package session

import (
	"context"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/channel"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
)

func (that *Session) handleEnvelope(envelope *channel.Envelope) {
	log := that.logger.With("method", "handleEnvelope")

	if envelope.Role != entity.Opponent(that.cfg.Self.Role) {
		log.Warn("dropping envelope from a foreign seat", "sender", envelope.Sender, "role", envelope.Role)
		return
	}

	if that.opponentID != "" && envelope.Sender != that.opponentID {
		log.Warn("dropping envelope from an unknown participant", "sender", envelope.Sender)
		return
	}

	switch envelope.Kind {
	case channel.KindMove:
		that.handleRemoteMove(envelope.Move)
	case channel.KindResyncRequest:
		that.answerResync(envelope)
	case channel.KindResyncState:
		that.handleRemoteState(envelope)
	}
}

func (that *Session) handleRemoteMove(move *entity.MoveEvent) {
	log := that.logger.With("method", "handleRemoteMove", "move_index", move.MoveIndex)

	length := that.state.MoveCount()

	switch {
	case move.MoveIndex < length:
		if move.Matches(that.state.MoveHistory[move.MoveIndex]) {
			log.Debug("discarding move", "error", apperror.ErrStaleMove)
			return
		}

		log.Warn("stale move conflicts with history, forcing resync", "length", length)
		that.requestResync(true)
		return

	case move.MoveIndex > length:
		log.Warn("missed moves, requesting resync", "length", length)
		that.requestResync(false)
		return
	}

	next, err := gomoku.ApplyMove(that.state, move.Row, move.Col, move.Player, move.Timestamp)
	if err != nil {
		log.Warn("remote move rejected, forcing resync", "reason", gomoku.RejectReason(err), "error", err)
		that.requestResync(true)
		return
	}

	that.state = next
	that.settle()
}

// requestResync - asks the peer for its state; unless forced it only answers when it is ahead.
func (that *Session) requestResync(force bool) {
	length := that.state.MoveCount()

	that.background("request resync", func(ctx context.Context) error {
		return that.cfg.Moves.RequestResync(ctx, length, force)
	})
}

func (that *Session) answerResync(envelope *channel.Envelope) {
	length := that.state.MoveCount()

	if envelope.Force || length > envelope.HistoryLength {
		state := that.state.Clone()
		that.background("publish state", func(ctx context.Context) error {
			return that.cfg.Moves.PublishState(ctx, state)
		})
	}

	// the peer is ahead of us
	if envelope.HistoryLength > length {
		that.requestResync(false)
	}
}

func (that *Session) handleRemoteState(envelope *channel.Envelope) {
	log := that.logger.With("method", "handleRemoteState")

	incoming := envelope.State
	if err := gomoku.Validate(incoming); err != nil {
		log.Warn("dropping invalid state", "error", err)
		return
	}

	if !shouldAdopt(that.state, incoming, envelope.Role) {
		// the peer is behind or holds a move of ours that we never made
		if shouldAdopt(incoming, that.state, that.cfg.Self.Role) {
			state := that.state.Clone()
			that.background("publish state", func(ctx context.Context) error {
				return that.cfg.Moves.PublishState(ctx, state)
			})
		}
		return
	}

	log.Info("adopting peer state", "local_moves", that.state.MoveCount(), "peer_moves", incoming.MoveCount())

	that.adopt(incoming)
}

func (that *Session) handleSnapshot(room *entity.Room) {
	log := that.logger.With("method", "handleSnapshot")

	if room == nil || room.ID != that.cfg.Room.ID {
		return
	}

	if that.opponentID == "" {
		if that.cfg.Self.Role == entity.PlayerHost {
			that.opponentID = room.GuestID
		} else {
			that.opponentID = room.HostID
		}
	}

	if room.Snapshot == nil || that.pending != nil {
		return
	}

	if err := gomoku.Validate(room.Snapshot); err != nil {
		log.Warn("dropping invalid room snapshot", "error", err)
		return
	}

	// the directory only ever holds a fresh or a terminal board
	if shouldAdopt(that.state, room.Snapshot, "") {
		that.adopt(room.Snapshot)
		return
	}

	if that.phase == PhaseIdle && !room.IsWaiting() && room.HasGuest() {
		that.releaseLobby()
		that.startPlaying()
		that.notify(NoticeGuestArrived, room.GuestID)
	}
}

func (that *Session) adopt(state *entity.GameState) {
	that.state = state.Clone()
	that.releaseLobby()
	that.settle()
	that.notify(NoticeResynced, "")
}

// shouldAdopt - incoming wins when it extends local, or when the histories first differ at a move
// made by author. Each seat is authoritative for its own moves.
func shouldAdopt(local, incoming *entity.GameState, author string) bool {
	localHistory, incomingHistory := local.MoveHistory, incoming.MoveHistory

	prefix := 0
	for prefix < len(localHistory) && prefix < len(incomingHistory) &&
		sameRecord(localHistory[prefix], incomingHistory[prefix]) {
		prefix++
	}

	switch {
	case prefix == len(incomingHistory):
		// incoming is a prefix of local; only a waiting-to-playing flip is news
		return len(incomingHistory) == len(localHistory) && local.IsWaiting() && !incoming.IsWaiting()
	case prefix == len(localHistory):
		return true
	default:
		return author != "" && incomingHistory[prefix].Player == author
	}
}

func sameRecord(a, b entity.MoveRecord) bool {
	return a.Row == b.Row && a.Col == b.Col && a.Player == b.Player && a.Timestamp.Equal(b.Timestamp)
}

// background - runs a best-effort publish off the loop with its own timeout.
func (that *Session) background(name string, publish func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(that.base, that.cfg.PublishTimeout)
		defer cancel()

		if err := publish(ctx); err != nil {
			that.logger.Warn("failed to "+name, "error", err)
		}
	}()
}
