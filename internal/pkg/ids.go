package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRoomCode - generates a random human-typeable room code.
func GenerateRoomCode() (string, error) {
	var code strings.Builder
	code.Grow(entity.RoomCodeLength)

	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	for range entity.RoomCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		code.WriteByte(roomCodeAlphabet[n.Int64()])
	}

	return code.String(), nil
}

// NormalizeRoomCode - trims and upper-cases user input, rejecting anything that is not a room code.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if len(code) != entity.RoomCodeLength {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidRoomCode, code)
	}

	for _, r := range code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			return "", fmt.Errorf("%w: %q", apperror.ErrInvalidRoomCode, code)
		}
	}

	return code, nil
}

func GenerateRoomID() string {
	return uuid.NewString()
}

// GenerateParticipantID - stands in for an identity provider.
func GenerateParticipantID() string {
	return uuid.NewString()
}
