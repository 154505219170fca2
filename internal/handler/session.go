package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fennwick/hearth/internal/identity"
	"github.com/fennwick/hearth/internal/session"
	"github.com/fennwick/hearth/internal/store"
)

// PINStore persists the parent decision PIN.
type PINStore interface {
	SetPIN(userID, hash string) error
	GetPINHash(userID string) (string, error)
}

type SessionHandler struct {
	coord  *session.Coordinator
	pins   PINStore
	logger *slog.Logger
}

func NewSessionHandler(coord *session.Coordinator, pins PINStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{coord: coord, pins: pins, logger: logger}
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}

type signInRequest struct {
	Token string `json:"token"`
}

// SignIn handles POST /api/session/sign-in
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.coord.SignIn(r.Context(), identity.Method{Token: req.Token}); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}

// SignOut handles POST /api/session/sign-out
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.SignOut(r.Context()); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}

type profileRequest struct {
	Name string `json:"name"`
}

// SetupProfile handles POST /api/session/profile
func (h *SessionHandler) SetupProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.coord.SetupProfile(req.Name); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}

// Refresh handles POST /api/session/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.Refresh(); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.coord.CurrentState())
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// SetPIN handles POST /api/session/pin. An empty PIN clears the gate.
func (h *SessionHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	state := h.coord.CurrentState()
	if state.Profile == nil {
		writeError(w, http.StatusConflict, "no profile loaded")
		return
	}

	var req pinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash := ""
	if req.PIN != "" {
		if len(req.PIN) < 4 {
			writeError(w, http.StatusBadRequest, "pin must be at least 4 digits")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
		if err != nil {
			h.logger.Error("hash pin", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to set pin")
			return
		}
		hash = string(hashed)
	}

	if err := h.pins.SetPIN(state.Profile.ID, hash); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// verifyPIN enforces the decision PIN when the signed-in profile has one
// set. Returns false after writing the response on failure.
func verifyPIN(w http.ResponseWriter, coord *session.Coordinator, pins PINStore, pin string) bool {
	state := coord.CurrentState()
	if state.Profile == nil || !state.Profile.HasPIN {
		return true
	}

	hash, err := pins.GetPINHash(state.Profile.ID)
	if err != nil {
		if err == store.ErrNotFound {
			return true
		}
		writeError(w, http.StatusInternalServerError, "failed to check pin")
		return false
	}
	if hash == "" {
		return true
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		writeError(w, http.StatusForbidden, "invalid pin")
		return false
	}
	return true
}
