package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// applyAt - plays the i-th move of a game; even indexes belong to the host.
func applyAt(state *entity.GameState, cell entity.Position, i int) (*entity.GameState, error) {
	player := entity.PlayerHost
	if i%2 == 1 {
		player = entity.PlayerGuest
	}
	return gomoku.ApplyMove(state, cell.Row, cell.Col, player, epoch.Add(time.Duration(i)*time.Second))
}

func game(t *testing.T, cells ...entity.Position) *entity.GameState {
	t.Helper()

	state := entity.NewGameState()
	state.Status = entity.StatusPlaying

	for i, cell := range cells {
		var err error
		state, err = applyAt(state, cell, i)
		require.NoError(t, err)
	}

	return state
}

func TestShouldAdopt(t *testing.T) {
	a, b, c := entity.Position{Row: 7, Col: 7}, entity.Position{Row: 8, Col: 8}, entity.Position{Row: 6, Col: 6}
	d := entity.Position{Row: 0, Col: 0}

	waiting := entity.NewGameState()
	empty := game(t)

	cases := []struct {
		name     string
		local    *entity.GameState
		incoming *entity.GameState
		author   string
		want     bool
	}{
		{"longer history extends ours", game(t, a), game(t, a, b), entity.PlayerGuest, true},
		{"same history is not news", game(t, a, b), game(t, a, b), entity.PlayerGuest, false},
		{"shorter history is ignored", game(t, a, b, c), game(t, a), entity.PlayerHost, false},
		{"waiting to playing flip", waiting, empty, "", true},
		{"playing to waiting is ignored", empty, waiting, "", false},
		// histories split at index 1, which the guest made
		{"divergence at the sender's move", game(t, a, b), game(t, a, d), entity.PlayerGuest, true},
		{"divergence at our own move", game(t, a, b), game(t, a, d), entity.PlayerHost, false},
		{"divergence without an author", game(t, a, b), game(t, a, d), "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldAdopt(tc.local, tc.incoming, tc.author))
		})
	}
}

func TestShouldAdopt_ConvergesAfterRollback(t *testing.T) {
	a, b, c := entity.Position{Row: 7, Col: 7}, entity.Position{Row: 8, Col: 8}, entity.Position{Row: 6, Col: 6}

	// Given: the guest rolled back b, which the host had already applied, then played c
	host := game(t, a, b)
	guest := game(t, a, c)

	// Then: exactly one side gives way, and it is the host, because index 1 is the guest's
	assert.True(t, shouldAdopt(host, guest, entity.PlayerGuest))
	assert.False(t, shouldAdopt(guest, host, entity.PlayerHost))
}
