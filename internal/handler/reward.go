package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/session"
)

type RewardHandler struct {
	coord  *session.Coordinator
	logger *slog.Logger
}

func NewRewardHandler(coord *session.Coordinator, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{coord: coord, logger: logger}
}

type rewardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Cost        int    `json:"cost"`
}

func (req *rewardRequest) toReward() model.Reward {
	return model.Reward{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
		Cost:        req.Cost,
	}
}

// Create handles POST /api/rewards
func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reward, err := h.coord.AddReward(req.toReward())
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

// Update handles PUT /api/rewards/{id}
func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	reward := req.toReward()
	reward.ID = r.PathValue("id")

	if err := h.coord.UpdateReward(reward); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/rewards/{id}
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.DeleteReward(r.PathValue("id")); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type redeemRequest struct {
	KidID string `json:"kid_id"`
}

// Redeem handles POST /api/rewards/{id}/redeem
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.KidID == "" {
		writeError(w, http.StatusBadRequest, "kid_id is required")
		return
	}

	sub, err := h.coord.RedeemReward(req.KidID, r.PathValue("id"))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}
