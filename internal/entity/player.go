package entity

import "time"

// Participant - a client session seated in a room.
type Participant struct {
	ID     string `json:"id"`
	Role   string `json:"role"`
	RoomID string `json:"room_id"`
}

// PresenceRecord is ephemeral and never persisted with the room.
type PresenceRecord struct {
	ParticipantID string    `json:"participant_id"`
	Role          string    `json:"role"`
	OnlineSince   time.Time `json:"online_since"`
}
