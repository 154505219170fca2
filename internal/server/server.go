// Package server wires the session coordinator, handlers, and real-time
// feed into one HTTP surface.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fennwick/hearth/internal/blob"
	"github.com/fennwick/hearth/internal/handler"
	"github.com/fennwick/hearth/internal/identity"
	"github.com/fennwick/hearth/internal/middleware"
	"github.com/fennwick/hearth/internal/push"
	"github.com/fennwick/hearth/internal/session"
	"github.com/fennwick/hearth/internal/store"
	ws "github.com/fennwick/hearth/internal/websocket"
)

// Config carries everything the server needs. PushService may be nil when
// VAPID keys are not configured.
type Config struct {
	Store       *store.FamilyStore
	Provider    identity.Provider
	Blobs       blob.Store
	PushService *push.Service
	DeviceToken string
	Logger      *slog.Logger
}

type Server struct {
	coord       *session.Coordinator
	hub         *ws.Hub
	sessionH    *handler.SessionHandler
	familyH     *handler.FamilyHandler
	kidH        *handler.KidHandler
	choreH      *handler.ChoreHandler
	rewardH     *handler.RewardHandler
	submissionH *handler.SubmissionHandler
	historyH    *handler.HistoryHandler
	pushH       *handler.PushHandler
	rateLimiter *middleware.RateLimiter
	deviceToken string
	logger      *slog.Logger
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	hub := ws.NewHub(logger.With("component", "websocket"))

	notifiers := multiNotifier{hubNotifier{hub: hub}}
	if cfg.PushService != nil {
		notifiers = append(notifiers, push.NewNotifier(cfg.PushService, cfg.Store, logger.With("component", "push")))
	}

	coord := session.New(session.Config{
		Provider: cfg.Provider,
		Store:    cfg.Store,
		Blobs:    cfg.Blobs,
		Notifier: notifiers,
		Logger:   logger.With("component", "session"),
	})

	var pushH *handler.PushHandler
	if cfg.PushService != nil {
		pushH = handler.NewPushHandler(coord, cfg.Store, cfg.PushService, logger.With("component", "push_handler"))
	}

	return &Server{
		coord:       coord,
		hub:         hub,
		sessionH:    handler.NewSessionHandler(coord, cfg.Store, logger.With("component", "session_handler")),
		familyH:     handler.NewFamilyHandler(coord, logger.With("component", "family")),
		kidH:        handler.NewKidHandler(coord, logger.With("component", "kid")),
		choreH:      handler.NewChoreHandler(coord, logger.With("component", "chore")),
		rewardH:     handler.NewRewardHandler(coord, logger.With("component", "reward")),
		submissionH: handler.NewSubmissionHandler(coord, cfg.Store, logger.With("component", "submission")),
		historyH:    handler.NewHistoryHandler(coord, cfg.Store, logger.With("component", "history")),
		pushH:       pushH,
		rateLimiter: middleware.NewRateLimiter(),
		deviceToken: cfg.DeviceToken,
		logger:      logger,
	}
}

// Coordinator returns the session coordinator for startup and shutdown
// hooks.
func (s *Server) Coordinator() *session.Coordinator {
	return s.coord
}

// Start bootstraps the device session and runs the WebSocket state feed
// until the context is cancelled.
func (s *Server) Start(ctx context.Context) {
	s.coord.Bootstrap(ctx)
	go s.hub.RunStateFeed(ctx, s.coord)
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	api := http.NewServeMux()
	s.registerAPIRoutes(api)
	mux.Handle("/api/", middleware.RequireDevice(s.deviceToken)(api))
	mux.Handle("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Session lifecycle
	mux.HandleFunc("GET /api/session", s.sessionH.Get)
	mux.HandleFunc("POST /api/session/sign-in", s.rateLimited(s.sessionH.SignIn))
	mux.HandleFunc("POST /api/session/sign-out", s.sessionH.SignOut)
	mux.HandleFunc("POST /api/session/profile", s.sessionH.SetupProfile)
	mux.HandleFunc("POST /api/session/refresh", s.sessionH.Refresh)
	mux.HandleFunc("POST /api/session/pin", s.sessionH.SetPIN)

	// Family membership
	mux.HandleFunc("POST /api/family", s.familyH.Create)
	mux.HandleFunc("POST /api/family/join", s.familyH.Join)
	mux.HandleFunc("POST /api/family/leave", s.familyH.Leave)

	// Parent-only management routes fail fast on phase; the coordinator
	// still enforces roles underneath.
	parent := middleware.RequireParent(s.coord)

	// Kids
	mux.Handle("POST /api/kids", parent(http.HandlerFunc(s.kidH.Create)))
	mux.Handle("PUT /api/kids/{id}", parent(http.HandlerFunc(s.kidH.Update)))
	mux.Handle("DELETE /api/kids/{id}", parent(http.HandlerFunc(s.kidH.Delete)))
	mux.HandleFunc("GET /api/leaderboard", s.kidH.Leaderboard)

	// Chores
	mux.Handle("POST /api/chores", parent(http.HandlerFunc(s.choreH.Create)))
	mux.Handle("PUT /api/chores/{id}", parent(http.HandlerFunc(s.choreH.Update)))
	mux.Handle("DELETE /api/chores/{id}", parent(http.HandlerFunc(s.choreH.Delete)))
	mux.Handle("POST /api/chores/{id}/pause", parent(http.HandlerFunc(s.choreH.SetPaused)))
	mux.HandleFunc("POST /api/chores/{id}/submit", s.choreH.SubmitEvidence)

	// Rewards
	mux.Handle("POST /api/rewards", parent(http.HandlerFunc(s.rewardH.Create)))
	mux.Handle("PUT /api/rewards/{id}", parent(http.HandlerFunc(s.rewardH.Update)))
	mux.Handle("DELETE /api/rewards/{id}", parent(http.HandlerFunc(s.rewardH.Delete)))
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)

	// Submissions
	mux.HandleFunc("GET /api/submissions", s.submissionH.List)
	mux.Handle("POST /api/submissions/{id}/approve", parent(http.HandlerFunc(s.submissionH.Approve)))
	mux.Handle("POST /api/submissions/{id}/reject", parent(http.HandlerFunc(s.submissionH.Reject)))
	mux.HandleFunc("POST /api/submissions/{id}/cancel", s.submissionH.Cancel)

	// History
	mux.HandleFunc("GET /api/history", s.historyH.List)
	mux.Handle("POST /api/history/{id}/reverse", parent(http.HandlerFunc(s.historyH.Reverse)))

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}
