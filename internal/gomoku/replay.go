package gomoku

import (
	"fmt"
	"reflect"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Replay - rebuilds a playing game from its move history.
func Replay(history []entity.MoveRecord) (*entity.GameState, error) {
	state := entity.NewGameState()
	state.Status = entity.StatusPlaying

	for i, move := range history {
		next, err := ApplyMove(state, move.Row, move.Col, move.Player, move.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: move %d: %w", apperror.ErrCorruptState, i, err)
		}
		state = next
	}

	return state, nil
}

// Validate - checks that a playing or finished state is exactly what its history produces.
func Validate(state *entity.GameState) error {
	if state == nil {
		return fmt.Errorf("%w: nil state", apperror.ErrCorruptState)
	}

	if state.IsWaiting() {
		if len(state.MoveHistory) != 0 || state.Board != (entity.Board{}) || state.Winner != "" {
			return fmt.Errorf("%w: waiting game has moves", apperror.ErrCorruptState)
		}
		return nil
	}

	replayed, err := Replay(state.MoveHistory)
	if err != nil {
		return err
	}

	if replayed.Board != state.Board ||
		replayed.CurrentPlayer != state.CurrentPlayer ||
		replayed.Status != state.Status ||
		replayed.Winner != state.Winner ||
		!reflect.DeepEqual(replayed.LastMove, state.LastMove) ||
		!reflect.DeepEqual(replayed.WinningLine, state.WinningLine) {
		return fmt.Errorf("%w: state does not match its history", apperror.ErrCorruptState)
	}

	return nil
}
