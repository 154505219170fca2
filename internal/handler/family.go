package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/session"
)

type FamilyHandler struct {
	coord  *session.Coordinator
	logger *slog.Logger
}

func NewFamilyHandler(coord *session.Coordinator, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{coord: coord, logger: logger}
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/family
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "family name is required")
		return
	}

	if err := h.coord.CreateFamily(req.Name); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.coord.CurrentState())
}

type joinFamilyRequest struct {
	InviteCode string `json:"invite_code"`
	Role       string `json:"role"`
}

// Join handles POST /api/family/join
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if code == "" {
		writeError(w, http.StatusBadRequest, "invite code is required")
		return
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be parent or kid")
		return
	}

	if err := h.coord.JoinFamily(code, role); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}

// Leave handles POST /api/family/leave
func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.LeaveFamily(); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}
