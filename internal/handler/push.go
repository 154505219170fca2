package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/push"
	"github.com/fennwick/hearth/internal/session"
)

// PushSubscriptionStore persists browser push endpoints.
type PushSubscriptionStore interface {
	SavePushSubscription(sub *model.PushSubscription) error
	DeletePushSubscription(id string) error
	ListPushSubscriptions(userID string) ([]model.PushSubscription, error)
}

type PushHandler struct {
	coord   *session.Coordinator
	subs    PushSubscriptionStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(coord *session.Coordinator, subs PushSubscriptionStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{coord: coord, subs: subs, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	state := h.coord.CurrentState()
	if state.Profile == nil {
		writeError(w, http.StatusConflict, "no profile loaded")
		return
	}

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub := &model.PushSubscription{
		ID:        uuid.NewString(),
		UserID:    state.Profile.ID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dh,
		AuthKey:   req.Auth,
	}
	if err := h.subs.SavePushSubscription(sub); err != nil {
		h.logger.Error("save push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.subs.DeletePushSubscription(r.PathValue("id")); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}
