package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

// MoveEvent is the unit exchanged between peers. MoveIndex is the sender's history length
// before the move was applied.
type MoveEvent struct {
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Player    string    `json:"player"`
	MoveIndex int       `json:"move_index"`
	Timestamp time.Time `json:"timestamp"`
}

func (that *MoveEvent) Validate() error {
	if !InBounds(that.Row, that.Col) {
		return fmt.Errorf("%w: cell (%d,%d) outside the board", apperror.ErrInvalidMove, that.Row, that.Col)
	}

	if !IsPlayer(that.Player) {
		return fmt.Errorf("%w: unknown player %q", apperror.ErrInvalidMove, that.Player)
	}

	if that.MoveIndex < 0 {
		return fmt.Errorf("%w: negative move index %d", apperror.ErrInvalidMove, that.MoveIndex)
	}

	return nil
}

// Matches - reports whether the event describes the given history entry.
func (that *MoveEvent) Matches(record MoveRecord) bool {
	return that.Row == record.Row &&
		that.Col == record.Col &&
		that.Player == record.Player &&
		that.Timestamp.Equal(record.Timestamp)
}
