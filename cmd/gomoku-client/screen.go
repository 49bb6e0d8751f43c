package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

var stones = map[string]string{
	entity.EmptyCell:   ".",
	entity.PlayerHost:  "X",
	entity.PlayerGuest: "O",
}

type screen struct {
	mu   sync.Mutex
	out  io.Writer
	role string
}

func newScreen(out io.Writer, role string) *screen {
	return &screen{out: out, role: role}
}

func (that *screen) render(state *entity.GameState, phase session.Phase) {
	if phase == session.PhaseOptimisticallyApplied || phase == session.PhaseRolledBack {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	var b strings.Builder
	b.WriteString("\n   ")
	for col := 0; col < entity.BoardSize; col++ {
		fmt.Fprintf(&b, "%3d", col)
	}
	b.WriteString("\n")

	for row := 0; row < entity.BoardSize; row++ {
		fmt.Fprintf(&b, "%3d", row)
		for col := 0; col < entity.BoardSize; col++ {
			stone := stones[state.Board[row][col]]
			if state.LastMove != nil && state.LastMove.Row == row && state.LastMove.Col == col {
				stone = strings.ToLower(stone)
			}
			fmt.Fprintf(&b, "%3s", stone)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "you are %s (%s), %s\n", that.role, stones[that.role], describe(phase))

	_, _ = io.WriteString(that.out, b.String())
}

func describe(phase session.Phase) string {
	switch phase {
	case session.PhaseIdle:
		return "waiting for a guest"
	case session.PhaseMyTurn:
		return "your move"
	case session.PhaseBroadcasting:
		return "sending"
	case session.PhaseWaitingOpponent:
		return "opponent to move"
	case session.PhaseFinished:
		return "game over"
	default:
		return string(phase)
	}
}

func (that *screen) finished(state *entity.GameState) {
	switch state.Winner {
	case entity.PlayerDraw:
		that.message("draw")
	case that.role:
		that.message("you win")
	default:
		that.message("you lose")
	}
}

func (that *screen) notice(notice session.Notice) {
	switch notice.Kind {
	case session.NoticeGuestArrived:
		that.message("guest joined, you open")
	case session.NoticeOpponentOnline:
		that.message("opponent is online")
	case session.NoticeOpponentOffline:
		that.message("opponent went offline")
	case session.NoticeOpponentIdle:
		that.message("opponent is taking a while")
	case session.NoticeSendFailed:
		that.message("send failed: %s", notice.Detail)
	case session.NoticeResynced:
		that.message("board resynced with opponent")
	}
}

func (that *screen) message(format string, args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintf(that.out, "* "+format+"\n", args...)
}
