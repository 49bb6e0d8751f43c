package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/channel"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/presence"
)

func (that *Session) run() {
	defer close(that.done)
	defer that.stopTurnTimer()

	for {
		select {
		case <-that.quit:
			if that.pending != nil {
				that.pending.reply <- apperror.ErrSessionClosed
				that.pending = nil
			}
			return

		case ev := <-that.events:
			that.handle(ev)
		}
	}
}

func (that *Session) handle(ev event) {
	switch ev := ev.(type) {
	case localMoveEvent:
		that.handleLocalMove(ev)
	case sendResultEvent:
		that.handleSendResult(ev)
	case remoteEnvelopeEvent:
		if that.pending != nil {
			// the outcome of our own publish decides what these envelopes mean
			that.deferred = append(that.deferred, ev.envelope)
			return
		}
		that.handleEnvelope(ev.envelope)
	case guestArrivalEvent:
		that.handleGuestArrival(ev.arrival)
	case presenceEvent:
		that.handlePresence(ev.change)
	case turnTimeoutEvent:
		that.handleTurnTimeout(ev)
	case snapshotEvent:
		that.handleSnapshot(ev.room)
	case resyncEvent:
		that.requestResync(ev.force)
	}
}

func (that *Session) handleLocalMove(ev localMoveEvent) {
	log := that.logger.With("method", "handleLocalMove")

	switch {
	case that.pending != nil:
		ev.reply <- apperror.ErrNotYourTurn
		return
	case that.phase == PhaseIdle || that.phase == PhaseFinished:
		ev.reply <- fmt.Errorf("%w: phase %s", apperror.ErrNotPlaying, that.phase)
		return
	case that.phase != PhaseMyTurn:
		ev.reply <- apperror.ErrNotYourTurn
		return
	}

	prev := that.state
	next, err := gomoku.ApplyMove(prev, ev.row, ev.col, that.cfg.Self.Role, entity.MoveTimestamp(that.cfg.Clock()))
	if err != nil {
		log.Debug("move rejected", "row", ev.row, "col", ev.col, "reason", gomoku.RejectReason(err))
		ev.reply <- err
		return
	}

	that.state = next
	that.setPhase(PhaseOptimisticallyApplied)

	move := entity.MoveEvent{
		Row:       ev.row,
		Col:       ev.col,
		Player:    that.cfg.Self.Role,
		MoveIndex: prev.MoveCount(),
		Timestamp: next.MoveHistory[prev.MoveCount()].Timestamp,
	}

	that.pending = &pendingMove{prev: prev, move: move, reply: ev.reply}
	that.stopTurnTimer()
	that.setPhase(PhaseBroadcasting)

	go func() {
		ctx, cancel := context.WithTimeout(that.base, that.cfg.PublishTimeout)
		defer cancel()

		err := that.cfg.Moves.PublishMove(ctx, move)
		that.send(sendResultEvent{move: move, err: err})
	}()
}

func (that *Session) handleSendResult(ev sendResultEvent) {
	log := that.logger.With("method", "handleSendResult")

	pending := that.pending
	if pending == nil || pending.move != ev.move {
		return
	}
	that.pending = nil

	if ev.err != nil {
		log.Warn("publish failed, rolling back", "move_index", ev.move.MoveIndex, "error", ev.err)

		that.state = pending.prev
		that.setPhase(PhaseRolledBack)
		that.setPhase(PhaseMyTurn)
		that.notify(NoticeSendFailed, ev.err.Error())

		err := ev.err
		if !errors.Is(err, apperror.ErrSendFailed) {
			err = fmt.Errorf("%w: %w", apperror.ErrSendFailed, err)
		}
		pending.reply <- err
	} else {
		log.Debug("move acknowledged", "move_index", ev.move.MoveIndex)

		that.settle()
		pending.reply <- nil
	}

	deferred := that.deferred
	that.deferred = nil
	for _, envelope := range deferred {
		that.handleEnvelope(envelope)
	}
}

// settle - derives the phase from the confirmed state and runs the terminal hook once.
func (that *Session) settle() {
	that.setPhase(that.derivePhase())

	switch that.phase {
	case PhaseFinished:
		that.stopTurnTimer()
		that.finish()
	case PhaseWaitingOpponent:
		that.armTurnTimer()
	default:
		that.stopTurnTimer()
	}
}

func (that *Session) derivePhase() Phase {
	switch {
	case that.state.IsFinished():
		return PhaseFinished
	case that.state.IsWaiting():
		return PhaseIdle
	case that.state.CurrentPlayer == that.cfg.Self.Role:
		return PhaseMyTurn
	default:
		return PhaseWaitingOpponent
	}
}

func (that *Session) finish() {
	if that.finishedFired {
		return
	}
	that.finishedFired = true

	state := that.state.Clone()
	that.logger.Info("game finished", "winner", state.Winner, "moves", state.MoveCount())

	if that.cfg.OnFinished != nil {
		that.cfg.OnFinished(state)
	}

	// whoever placed the last stone writes the terminal snapshot
	last := state.MoveHistory[len(state.MoveHistory)-1]
	if last.Player != that.cfg.Self.Role || that.cfg.Directory == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(that.base, that.cfg.PublishTimeout)
		defer cancel()

		if _, err := that.cfg.Directory.FinishRoom(ctx, that.cfg.Room.ID, state); err != nil {
			that.logger.Error("failed to persist final snapshot", "error", err)
		}
	}()
}

func (that *Session) handleGuestArrival(arrival channel.GuestArrival) {
	if arrival.RoomID != that.cfg.Room.ID {
		return
	}

	that.opponentID = arrival.GuestID
	that.releaseLobby()

	if that.phase != PhaseIdle {
		return
	}

	that.logger.Info("guest arrived", "guest_id", arrival.GuestID)

	that.startPlaying()
	that.notify(NoticeGuestArrived, arrival.GuestID)
}

// startPlaying - flips a waiting game to playing.
func (that *Session) startPlaying() {
	state := that.state.Clone()
	state.Status = entity.StatusPlaying
	that.state = state
	that.settle()
}

func (that *Session) releaseLobby() {
	if that.lobbySub == nil {
		return
	}

	if err := that.lobbySub.Unsubscribe(); err != nil {
		that.logger.Warn("failed to stop watching lobby", "error", err)
	}
	that.lobbySub = nil
}

func (that *Session) handlePresence(change presence.Event) {
	online := that.cfg.Presence.IsOpponentOnline(that.cfg.Self.Role)

	that.viewMu.Lock()
	was := that.view.opponentOnline
	that.view.opponentOnline = online
	that.viewMu.Unlock()

	if online == was {
		return
	}

	if !online {
		that.notify(NoticeOpponentOffline, change.Record.ParticipantID)
		return
	}

	that.notify(NoticeOpponentOnline, change.Record.ParticipantID)

	// a guest can be online before the lobby notice reaches an idle host
	if that.phase == PhaseIdle {
		that.reloadSnapshot()
	}
}

func (that *Session) reloadSnapshot() {
	if that.cfg.Directory == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(that.base, that.cfg.PublishTimeout)
		defer cancel()

		room, err := that.cfg.Directory.GetRoomByID(ctx, that.cfg.Room.ID)
		if err != nil {
			that.logger.Warn("failed to reload room", "error", err)
			return
		}
		that.send(snapshotEvent{room: room})
	}()
}

func (that *Session) armTurnTimer() {
	that.stopTurnTimer()

	if that.cfg.TurnTimeout <= 0 {
		return
	}

	that.turnSeq++
	seq := that.turnSeq
	that.turnTimer = time.AfterFunc(that.cfg.TurnTimeout, func() {
		that.send(turnTimeoutEvent{seq: seq})
	})
}

func (that *Session) stopTurnTimer() {
	if that.turnTimer != nil {
		that.turnTimer.Stop()
		that.turnTimer = nil
	}
	that.turnSeq++
}

func (that *Session) handleTurnTimeout(ev turnTimeoutEvent) {
	if ev.seq != that.turnSeq || that.phase != PhaseWaitingOpponent {
		return
	}

	that.logger.Info("opponent idle", "moves", that.state.MoveCount())
	that.notify(NoticeOpponentIdle, "")

	// the opponent's move may have been dropped
	that.requestResync(false)
	that.armTurnTimer()
}

func (that *Session) setPhase(phase Phase) {
	that.phase = phase
	that.publishView()

	if that.cfg.OnState != nil {
		that.cfg.OnState(that.state.Clone(), phase)
	}
}

func (that *Session) publishView() {
	state := that.state.Clone()

	that.viewMu.Lock()
	that.view.state = state
	that.view.phase = that.phase
	that.viewMu.Unlock()
}

func (that *Session) notify(kind, detail string) {
	if that.cfg.OnNotice != nil {
		that.cfg.OnNotice(Notice{Kind: kind, Detail: detail})
	}
}
