package server

import (
	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/session"
	ws "github.com/fennwick/hearth/internal/websocket"
)

// hubNotifier relays submission events onto the WebSocket feed.
type hubNotifier struct {
	hub *ws.Hub
}

func (n hubNotifier) SubmissionCreated(_ string, sub model.Submission) {
	n.hub.Broadcast(ws.NewSubmissionEvent(ws.EventSubmissionCreated, sub))
}

func (n hubNotifier) SubmissionDecided(_ string, sub model.Submission) {
	n.hub.Broadcast(ws.NewSubmissionEvent(ws.EventSubmissionDecided, sub))
}

// multiNotifier fans one event out to several notifiers.
type multiNotifier []session.Notifier

func (m multiNotifier) SubmissionCreated(familyID string, sub model.Submission) {
	for _, n := range m {
		n.SubmissionCreated(familyID, sub)
	}
}

func (m multiNotifier) SubmissionDecided(familyID string, sub model.Submission) {
	for _, n := range m {
		n.SubmissionDecided(familyID, sub)
	}
}
