package transport

import (
	"context"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

const (
	EventsPath   = "/events"
	SessionsPath = "/sessions"
)

// EventsRequest is the body of POST /events.
type EventsRequest struct {
	Events []event.Stamped `json:"events"`
}

// SessionRequest is the body of POST /sessions.
type SessionRequest struct {
	Session session.Snapshot `json:"session"`
}

// PostEvents ships one batch in the given order.
func (t *Transport) PostEvents(ctx context.Context, events []event.Stamped) error {
	_, err := t.Post(ctx, t.endpoint+EventsPath, EventsRequest{Events: events})
	return err
}

// PostSession creates or updates the session on the server.
func (t *Transport) PostSession(ctx context.Context, snap session.Snapshot) (*Response, error) {
	return t.Post(ctx, t.endpoint+SessionsPath, SessionRequest{Session: snap})
}
