package entity

import (
	"time"
)

const RoomCodeLength = 6

type Room struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	HostID    string     `json:"host_id"`
	GuestID   string     `json:"guest_id,omitempty"`
	Status    string     `json:"status"`
	Snapshot  *GameState `json:"snapshot"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewRoom(id, code, hostID string, now time.Time) *Room {
	return &Room{
		ID:        id,
		Code:      code,
		HostID:    hostID,
		Status:    StatusWaiting,
		Snapshot:  NewGameState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RoleOf - returns the seat held by the participant, if any.
func (that *Room) RoleOf(participantID string) (string, bool) {
	switch {
	case participantID == "":
		return "", false
	case participantID == that.HostID:
		return PlayerHost, true
	case participantID == that.GuestID:
		return PlayerGuest, true
	default:
		return "", false
	}
}

func (that *Room) HasGuest() bool {
	return that.GuestID != ""
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}
