package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fennwick/hearth/internal/session"
)

type KidHandler struct {
	coord  *session.Coordinator
	logger *slog.Logger
}

func NewKidHandler(coord *session.Coordinator, logger *slog.Logger) *KidHandler {
	return &KidHandler{coord: coord, logger: logger}
}

type kidRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Create handles POST /api/kids
func (h *KidHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req kidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	kid, err := h.coord.AddKid(req.Name, req.Color)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, kid)
}

// Update handles PUT /api/kids/{id}
func (h *KidHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req kidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.coord.UpdateKid(r.PathValue("id"), req.Name, req.Color); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/kids/{id}
func (h *KidHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.DeleteKid(r.PathValue("id")); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leaderboard handles GET /api/leaderboard
func (h *KidHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coord.Leaderboard())
}
