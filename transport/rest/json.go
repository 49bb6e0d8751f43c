package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor - maps a domain error to the status code the API promises for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidRoomCode):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrRoomFull),
		errors.Is(err, apperror.ErrRoomNotPlaying),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidParticipant),
		errors.Is(err, apperror.ErrGameNotFinished),
		errors.Is(err, apperror.ErrCorruptState):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrCodeGenerationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
