// Package collector is a local stand-in for the AgentOps API. It accepts
// the same session and event payloads the SDK sends and keeps them in
// memory or in SQLite for inspection.
package collector

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/agentops-ai/agentops-go/pkg/session"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrEmptyID  = errors.New("session id cannot be empty")
)

// Event is one received event. Data is the JSON object as sent.
type Event struct {
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
}

// Store persists sessions and events in arrival order.
type Store interface {
	UpsertSession(ctx context.Context, snap session.Snapshot) error
	GetSession(ctx context.Context, id string) (session.Snapshot, error)
	ListSessions(ctx context.Context) ([]session.Snapshot, error)
	AppendEvents(ctx context.Context, events []Event) error
	ListEvents(ctx context.Context, sessionID string) ([]json.RawMessage, error)
	Close() error
}
