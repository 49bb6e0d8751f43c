package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/presence"
)

// presenceTTL bounds how long a room's membership outlives its last write.
const presenceTTL = 24 * time.Hour

// PresenceRepository keeps room membership in a Redis hash keyed by participant id.
type PresenceRepository struct {
	client *redis.Client
}

func NewPresenceRepository(client *redis.Client) *PresenceRepository {
	return &PresenceRepository{
		client: client,
	}
}

func presenceKey(roomID string) string {
	return "presence:" + roomID
}

func (that *PresenceRepository) Add(ctx context.Context, roomID string, record entity.PresenceRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal presence: %w", err)
	}

	key := presenceKey(roomID)

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, record.ParticipantID, recordJSON)
		pipe.Expire(ctx, key, presenceTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add presence: %w", err)
	}

	return nil
}

func (that *PresenceRepository) Remove(ctx context.Context, roomID, participantID string) error {
	if err := that.client.HDel(ctx, presenceKey(roomID), participantID).Err(); err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}

	return nil
}

func (that *PresenceRepository) Members(ctx context.Context, roomID string) ([]entity.PresenceRecord, error) {
	fields, err := that.client.HGetAll(ctx, presenceKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	members := make([]entity.PresenceRecord, 0, len(fields))
	for _, value := range fields {
		var record entity.PresenceRecord
		if err = json.Unmarshal([]byte(value), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
		}
		members = append(members, record)
	}

	presence.SortRecords(members)

	return members, nil
}
