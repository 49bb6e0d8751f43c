package session

import (
	"github.com/rocketscienceinc/gomoku-backend/internal/channel"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/presence"
)

// Everything the event loop reacts to arrives as one of these.
type event interface {
	isEvent()
}

type localMoveEvent struct {
	row, col int
	reply    chan error
}

type remoteEnvelopeEvent struct {
	envelope *channel.Envelope
}

// sendResultEvent is the ack (err == nil) or send error of the outstanding publish.
type sendResultEvent struct {
	move entity.MoveEvent
	err  error
}

type guestArrivalEvent struct {
	arrival channel.GuestArrival
}

type presenceEvent struct {
	change presence.Event
}

type turnTimeoutEvent struct {
	seq uint64
}

// snapshotEvent carries a room reloaded from the directory.
type snapshotEvent struct {
	room *entity.Room
}

// resyncEvent asks the peer for its state.
type resyncEvent struct {
	force bool
}

func (localMoveEvent) isEvent()      {}
func (remoteEnvelopeEvent) isEvent() {}
func (sendResultEvent) isEvent()     {}
func (guestArrivalEvent) isEvent()   {}
func (presenceEvent) isEvent()       {}
func (turnTimeoutEvent) isEvent()    {}
func (snapshotEvent) isEvent()       {}
func (resyncEvent) isEvent()         {}
