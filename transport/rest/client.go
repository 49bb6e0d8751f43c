package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

// known errors are restored from the response message so callers can use errors.Is.
var known = []error{
	apperror.ErrRoomNotFound,
	apperror.ErrRoomFull,
	apperror.ErrRoomNotPlaying,
	apperror.ErrInvalidRoomCode,
	apperror.ErrInvalidParticipant,
	apperror.ErrGameNotFinished,
	apperror.ErrCodeGenerationExhausted,
	apperror.ErrCorruptState,
	repository.ErrConflict,
}

// Client talks to Server. It serves a session both as its room directory and as its presence registry.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (that *Client) CreateRoom(ctx context.Context, hostID string) (*entity.Room, error) {
	var room entity.Room
	if err := that.do(ctx, http.MethodPost, "/rooms", CreateRoomRequest{HostID: hostID}, &room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return &room, nil
}

func (that *Client) GetRoomByCode(ctx context.Context, code string) (*entity.Room, error) {
	var room entity.Room
	if err := that.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(code), nil, &room); err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return &room, nil
}

func (that *Client) JoinRoom(ctx context.Context, code, guestID string) (*entity.Room, error) {
	var room entity.Room
	path := "/rooms/" + url.PathEscape(code) + "/join"
	if err := that.do(ctx, http.MethodPost, path, JoinRoomRequest{GuestID: guestID}, &room); err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	return &room, nil
}

func (that *Client) GetRoomByID(ctx context.Context, id string) (*entity.Room, error) {
	var room entity.Room
	if err := that.do(ctx, http.MethodGet, roomPath(id), nil, &room); err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return &room, nil
}

func (that *Client) FinishRoom(ctx context.Context, roomID string, state *entity.GameState) (*entity.Room, error) {
	var room entity.Room
	if err := that.do(ctx, http.MethodPost, roomPath(roomID)+"/finish", state, &room); err != nil {
		return nil, fmt.Errorf("failed to finish room: %w", err)
	}

	return &room, nil
}

func (that *Client) Add(ctx context.Context, roomID string, record entity.PresenceRecord) error {
	if err := that.do(ctx, http.MethodPut, roomPath(roomID)+"/presence", record, nil); err != nil {
		return fmt.Errorf("failed to add presence: %w", err)
	}

	return nil
}

func (that *Client) Remove(ctx context.Context, roomID, participantID string) error {
	path := roomPath(roomID) + "/presence/" + url.PathEscape(participantID)
	if err := that.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}

	return nil
}

func (that *Client) Members(ctx context.Context, roomID string) ([]entity.PresenceRecord, error) {
	var members []entity.PresenceRecord
	if err := that.do(ctx, http.MethodGet, roomPath(roomID)+"/presence", nil, &members); err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}

	return members, nil
}

func roomPath(id string) string {
	return "/rooms/id/" + url.PathEscape(id)
}

func (that *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, that.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := that.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var matched []error
	for _, err := range known {
		if strings.Contains(body.Error, err.Error()) {
			matched = append(matched, err)
		}
	}

	if len(matched) == 0 {
		return errors.New(body.Error)
	}

	return fmt.Errorf("%w: status %d", errors.Join(matched...), resp.StatusCode)
}
