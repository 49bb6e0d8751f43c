package gomoku

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const WinLength = 5

const (
	ReasonNotYourTurn  = "not-your-turn"
	ReasonCellOccupied = "cell-occupied"
	ReasonOutOfBounds  = "out-of-bounds"
	ReasonNotPlaying   = "not-playing"
)

// axes - horizontal, vertical, diagonal, anti-diagonal.
var axes = [4]entity.Position{
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 1, Col: 1},
	{Row: 1, Col: -1},
}

type WinResult struct {
	IsWin bool
	Line  [WinLength]entity.Position
}

// ApplyMove - validates the move against state and returns the resulting state.
// The input state is never modified.
func ApplyMove(state *entity.GameState, row, col int, player string, at time.Time) (*entity.GameState, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", apperror.ErrCorruptState)
	}

	if err := validateMove(state, row, col, player); err != nil {
		return nil, err
	}

	next := state.Clone()
	next.Board[row][col] = player
	next.LastMove = &entity.Position{Row: row, Col: col}
	next.MoveHistory = append(next.MoveHistory, entity.MoveRecord{
		Row:       row,
		Col:       col,
		Player:    player,
		Timestamp: at,
	})

	updateGameStatus(next, row, col, player)

	return next, nil
}

// validateMove - checks if the move is valid.
func validateMove(state *entity.GameState, row, col int, player string) error {
	if err := state.ConfirmPlayingState(); err != nil {
		return err
	}

	if !entity.InBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrOutOfBounds, row, col)
	}

	if state.CurrentPlayer != player {
		return apperror.ErrNotYourTurn
	}

	if state.Board[row][col] != entity.EmptyCell {
		return fmt.Errorf("%w: (%d,%d)", apperror.ErrCellOccupied, row, col)
	}

	return nil
}

// updateGameStatus - settles win/draw after a stone is placed and passes the turn.
func updateGameStatus(state *entity.GameState, row, col int, player string) {
	if result := CheckWin(&state.Board, row, col, player); result.IsWin {
		state.Status = entity.StatusFinished
		state.Winner = player
		state.WinningLine = result.Line[:]
	} else if IsBoardFull(&state.Board) {
		state.Status = entity.StatusFinished
		state.Winner = entity.PlayerDraw
	}

	state.CurrentPlayer = entity.Opponent(player)
}

// CheckWin - looks for a run of at least WinLength stones through (row, col).
func CheckWin(board *entity.Board, row, col int, player string) WinResult {
	if !entity.InBounds(row, col) || board[row][col] != player {
		return WinResult{}
	}

	for _, axis := range axes {
		back := countRun(board, row, col, -axis.Row, -axis.Col, player)
		forward := countRun(board, row, col, axis.Row, axis.Col, player)

		if back+forward+1 < WinLength {
			continue
		}

		// the window starts at the backward end of the run, but never so far back that it
		// stops covering the placed stone
		offset := min(back, WinLength-1)
		startRow, startCol := row-offset*axis.Row, col-offset*axis.Col

		result := WinResult{IsWin: true}
		for i := range WinLength {
			result.Line[i] = entity.Position{Row: startRow + i*axis.Row, Col: startCol + i*axis.Col}
		}

		return result
	}

	return WinResult{}
}

func countRun(board *entity.Board, row, col, dRow, dCol int, player string) int {
	count := 0
	for r, c := row+dRow, col+dCol; entity.InBounds(r, c) && board[r][c] == player; r, c = r+dRow, c+dCol {
		count++
	}
	return count
}

func IsBoardFull(board *entity.Board) bool {
	for row := range board {
		for col := range board[row] {
			if board[row][col] == entity.EmptyCell {
				return false
			}
		}
	}
	return true
}

// RejectReason - maps an ApplyMove error onto its wire reason, or "" for other errors.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		return ReasonNotYourTurn
	case errors.Is(err, apperror.ErrCellOccupied):
		return ReasonCellOccupied
	case errors.Is(err, apperror.ErrOutOfBounds):
		return ReasonOutOfBounds
	case errors.Is(err, apperror.ErrNotPlaying):
		return ReasonNotPlaying
	default:
		return ""
	}
}
