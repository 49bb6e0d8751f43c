package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const BoardSize = 15

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"

	PlayerHost  = "host"
	PlayerGuest = "guest"
	PlayerDraw  = "draw"

	EmptyCell = ""
)

type Board [BoardSize][BoardSize]string

// Position - a board coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// MoveRecord - one accepted move in the history log.
type MoveRecord struct {
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Player    string    `json:"player"`
	Timestamp time.Time `json:"timestamp"`
}

type GameState struct {
	Board         Board        `json:"board"`
	CurrentPlayer string       `json:"current_player"`
	Status        string       `json:"status"`
	Winner        string       `json:"winner,omitempty"`
	WinningLine   []Position   `json:"winning_line,omitempty"`
	LastMove      *Position    `json:"last_move,omitempty"`
	MoveHistory   []MoveRecord `json:"move_history"`
}

func NewGameState() *GameState {
	return &GameState{
		CurrentPlayer: PlayerHost,
		Status:        StatusWaiting,
		MoveHistory:   []MoveRecord{},
	}
}

// Clone - returns a deep copy that shares nothing with the receiver.
func (that *GameState) Clone() *GameState {
	if that == nil {
		return nil
	}

	clone := *that

	if that.WinningLine != nil {
		clone.WinningLine = append([]Position(nil), that.WinningLine...)
	}

	if that.LastMove != nil {
		lastMove := *that.LastMove
		clone.LastMove = &lastMove
	}

	clone.MoveHistory = append(make([]MoveRecord, 0, len(that.MoveHistory)), that.MoveHistory...)

	return &clone
}

func (that *GameState) MoveCount() int {
	return len(that.MoveHistory)
}

func (that *GameState) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *GameState) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *GameState) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *GameState) ConfirmPlayingState() error {
	switch that.Status {
	case StatusPlaying:
		return nil
	case StatusWaiting, StatusFinished:
		return fmt.Errorf("%w: status %s", apperror.ErrNotPlaying, that.Status)
	default:
		return fmt.Errorf("%w: unknown status %q", apperror.ErrCorruptState, that.Status)
	}
}

// Opponent - returns the other seat.
func Opponent(player string) string {
	if player == PlayerHost {
		return PlayerGuest
	}
	return PlayerHost
}

func IsPlayer(player string) bool {
	return player == PlayerHost || player == PlayerGuest
}

func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// MoveTimestamp - normalizes a clock reading to what survives a JSON round trip unchanged.
func MoveTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
