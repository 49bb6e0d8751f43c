package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type CreateRoomRequest struct {
	HostID string `json:"host_id"`
}

type JoinRoomRequest struct {
	GuestID string `json:"guest_id"`
}

func (that *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := that.directory.CreateRoom(r.Context(), req.HostID)
	if err != nil {
		that.fail(w, "CreateRoom", err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

func (that *Server) handleGetRoomByCode(w http.ResponseWriter, r *http.Request) {
	room, err := that.directory.GetRoomByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		that.fail(w, "GetRoomByCode", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (that *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := that.directory.JoinRoom(r.Context(), chi.URLParam(r, "code"), req.GuestID)
	if err != nil {
		that.fail(w, "JoinRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (that *Server) handleGetRoomByID(w http.ResponseWriter, r *http.Request) {
	room, err := that.directory.GetRoomByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.fail(w, "GetRoomByID", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (that *Server) handleFinishRoom(w http.ResponseWriter, r *http.Request) {
	var state entity.GameState
	if err := readJSON(w, r, &state); err != nil {
		writeError(w, http.StatusBadRequest, "invalid game state")
		return
	}

	room, err := that.directory.FinishRoom(r.Context(), chi.URLParam(r, "id"), &state)
	if err != nil {
		that.fail(w, "FinishRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (that *Server) handleListPresence(w http.ResponseWriter, r *http.Request) {
	members, err := that.presence.Members(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.fail(w, "ListPresence", err)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

func (that *Server) handleAddPresence(w http.ResponseWriter, r *http.Request) {
	var record entity.PresenceRecord
	if err := readJSON(w, r, &record); err != nil || record.ParticipantID == "" || !entity.IsPlayer(record.Role) {
		writeError(w, http.StatusBadRequest, "invalid presence record")
		return
	}

	if err := that.presence.Add(r.Context(), chi.URLParam(r, "id"), record); err != nil {
		that.fail(w, "AddPresence", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Server) handleRemovePresence(w http.ResponseWriter, r *http.Request) {
	if err := that.presence.Remove(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "participantID")); err != nil {
		that.fail(w, "RemovePresence", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
