package apperror

import "errors"

// Move validation. These are rejected locally and never transmitted.
var (
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrOutOfBounds  = errors.New("cell is out of bounds")
	ErrNotPlaying   = errors.New("game is not in progress")
	ErrInvalidMove  = errors.New("invalid move event")
)

// Transport.
var (
	ErrSendFailed    = errors.New("failed to send move, retry")
	ErrSessionClosed = errors.New("session is closed")
)

// Rooms.
var (
	ErrRoomNotFound            = errors.New("room not found")
	ErrRoomFull                = errors.New("room is full")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique room code")
	ErrInvalidRoomCode         = errors.New("invalid room code")
	ErrRoomNotPlaying          = errors.New("room is not playing")
	ErrInvalidParticipant      = errors.New("participant id is required")
	ErrGameNotFinished         = errors.New("game is not finished")
)

var (
	ErrStaleMove    = errors.New("stale or duplicate move")
	ErrCorruptState = errors.New("corrupt game state")
)
