package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/session"
)

const maxEvidenceBytes = 10 << 20

type ChoreHandler struct {
	coord  *session.Coordinator
	logger *slog.Logger
}

func NewChoreHandler(coord *session.Coordinator, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{coord: coord, logger: logger}
}

type choreRequest struct {
	Name            string   `json:"name"`
	AssigneeIDs     []string `json:"assignee_ids"`
	DueDate         string   `json:"due_date"`
	RewardCoins     int      `json:"reward_coins"`
	PunishmentCoins int      `json:"punishment_coins"`
	Frequency       string   `json:"frequency"`
	Paused          bool     `json:"paused"`
}

func (req *choreRequest) toChore() (model.Chore, error) {
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		return model.Chore{}, err
	}
	return model.Chore{
		Name:            strings.TrimSpace(req.Name),
		AssigneeIDs:     req.AssigneeIDs,
		DueDate:         due,
		RewardCoins:     req.RewardCoins,
		PunishmentCoins: req.PunishmentCoins,
		Frequency:       model.Frequency(req.Frequency),
		Paused:          req.Paused,
	}, nil
}

// Create handles POST /api/chores
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	chore, err := req.toChore()
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be RFC 3339")
		return
	}

	created, err := h.coord.AddChore(chore)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/chores/{id}
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	chore, err := req.toChore()
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be RFC 3339")
		return
	}
	chore.ID = r.PathValue("id")

	if err := h.coord.UpdateChore(chore); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/chores/{id}
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.DeleteChore(r.PathValue("id")); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

// SetPaused handles POST /api/chores/{id}/pause
func (h *ChoreHandler) SetPaused(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.coord.SetChorePaused(r.PathValue("id"), req.Paused); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitEvidence handles POST /api/chores/{id}/submit. Multipart form
// with a kid_id field and an optional evidence file.
func (h *ChoreHandler) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEvidenceBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	kidID := r.FormValue("kid_id")
	if kidID == "" {
		writeError(w, http.StatusBadRequest, "kid_id is required")
		return
	}

	var evidence []byte
	contentType := ""
	if file, header, err := r.FormFile("evidence"); err == nil {
		defer file.Close()
		evidence, err = io.ReadAll(io.LimitReader(file, maxEvidenceBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read evidence")
			return
		}
		contentType = header.Header.Get("Content-Type")
	}

	sub, err := h.coord.SubmitChoreEvidence(r.Context(), kidID, r.PathValue("id"), evidence, contentType)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}
