package handler

import (
	"log/slog"
	"net/http"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/session"
)

type HistoryHandler struct {
	coord  *session.Coordinator
	pins   PINStore
	logger *slog.Logger
}

func NewHistoryHandler(coord *session.Coordinator, pins PINStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{coord: coord, pins: pins, logger: logger}
}

// List handles GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.coord.History()
	if err != nil {
		writeOpError(w, err)
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type reverseRequest struct {
	PIN string `json:"pin"`
}

// Reverse handles POST /api/history/{id}/reverse. Gated by the decision
// PIN when one is set.
func (h *HistoryHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !verifyPIN(w, h.coord, h.pins, req.PIN) {
		return
	}

	comp, err := h.coord.ReverseHistory(r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}
