package handler

import (
	"log/slog"
	"net/http"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/session"
)

type SubmissionHandler struct {
	coord  *session.Coordinator
	pins   PINStore
	logger *slog.Logger
}

func NewSubmissionHandler(coord *session.Coordinator, pins PINStore, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{coord: coord, pins: pins, logger: logger}
}

// List handles GET /api/submissions
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.coord.Submissions()
	if err != nil {
		writeOpError(w, err)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

type decisionRequest struct {
	PIN  string `json:"pin"`
	Note string `json:"note"`
}

// Approve handles POST /api/submissions/{id}/approve. Gated by the
// reviewer's decision PIN when one is set.
func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !verifyPIN(w, h.coord, h.pins, req.PIN) {
		return
	}

	if err := h.coord.ApproveSubmission(r.PathValue("id")); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}

// Reject handles POST /api/submissions/{id}/reject
func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !verifyPIN(w, h.coord, h.pins, req.PIN) {
		return
	}

	if err := h.coord.RejectSubmission(r.PathValue("id"), req.Note); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cancelRequest struct {
	KidID string `json:"kid_id"`
}

// Cancel handles POST /api/submissions/{id}/cancel
func (h *SubmissionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.coord.CancelSubmission(r.PathValue("id"), req.KidID); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
