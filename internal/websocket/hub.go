// Package websocket pushes session state and submission activity to
// connected UI clients in real time.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/session"
)

// Event is one real-time notification pushed to every connected client.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventState             = "state"
	EventSubmissionCreated = "submission_created"
	EventSubmissionDecided = "submission_decided"
)

// NewStateEvent wraps a session state snapshot for broadcast.
func NewStateEvent(state session.State) Event {
	return Event{Type: EventState, Payload: state}
}

// NewSubmissionEvent wraps a submission lifecycle notification.
func NewSubmissionEvent(eventType string, sub model.Submission) Event {
	return Event{Type: eventType, Payload: sub}
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to all connected clients.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop rather than block the broadcaster.
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StateSource is the session-state feed the hub relays. The session
// coordinator satisfies it.
type StateSource interface {
	Subscribe() (<-chan session.State, func())
}

// RunStateFeed relays coordinator state snapshots to all clients until the
// context is cancelled. Blocks; run it on its own goroutine.
func (h *Hub) RunStateFeed(ctx context.Context, src StateSource) {
	states, cancel := src.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			h.Broadcast(NewStateEvent(state))
		}
	}
}
