package collector

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"

	"github.com/agentops-ai/agentops-go/pkg/concurrent"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

type MemoryStore struct {
	sessions *concurrent.Map[string, session.Snapshot]
	events   *concurrent.Slice[Event]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: concurrent.NewMap[string, session.Snapshot](),
		events:   concurrent.NewSlice[Event](),
	}
}

func (s *MemoryStore) UpsertSession(_ context.Context, snap session.Snapshot) error {
	if snap.SessionID == "" {
		return ErrEmptyID
	}
	s.sessions.Store(snap.SessionID, snap)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (session.Snapshot, error) {
	if id == "" {
		return session.Snapshot{}, ErrEmptyID
	}
	snap, ok := s.sessions.Load(id)
	if !ok {
		return session.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// ListSessions returns sessions oldest first.
func (s *MemoryStore) ListSessions(context.Context) ([]session.Snapshot, error) {
	all := s.sessions.Values()
	slices.SortFunc(all, func(a, b session.Snapshot) int {
		return cmp.Or(a.InitTimestamp.Compare(b.InitTimestamp), cmp.Compare(a.SessionID, b.SessionID))
	})
	return all, nil
}

func (s *MemoryStore) AppendEvents(_ context.Context, events []Event) error {
	for _, e := range events {
		if e.SessionID == "" {
			return ErrEmptyID
		}
	}
	s.events.Append(events...)
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, sessionID string) ([]json.RawMessage, error) {
	matching := s.events.Filter(func(e Event) bool { return e.SessionID == sessionID })
	out := make([]json.RawMessage, 0, len(matching))
	for _, e := range matching {
		out = append(out, e.Data)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
