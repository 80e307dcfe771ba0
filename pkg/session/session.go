// Package session tracks one logical run of monitored activity: its
// identity, its tags and its terminal outcome.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// EndState is the terminal outcome of a session.
type EndState string

const (
	Success       EndState = "Success"
	Fail          EndState = "Fail"
	Indeterminate EndState = "Indeterminate"
)

// Valid reports whether s is one of the known end states.
func (s EndState) Valid() bool {
	switch s {
	case Success, Fail, Indeterminate:
		return true
	}
	return false
}

// ParseEndState converts a string such as "success" or "Fail" to an EndState.
func ParseEndState(s string) (EndState, error) {
	for _, state := range []EndState{Success, Fail, Indeterminate} {
		if strings.EqualFold(string(state), s) {
			return state, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEndState, s)
}

var (
	ErrAlreadyEnded    = errors.New("session already ended")
	ErrInvalidEndState = errors.New("invalid end state")
)

// Session is a small state machine: Active until End is called once, Ended
// afterwards. It is safe for concurrent use.
type Session struct {
	id            string
	tags          []string
	initTimestamp time.Time

	mu           sync.RWMutex
	endTimestamp time.Time
	endState     EndState
	rating       string
}

// New creates an active session.
func New(id string, tags []string, now time.Time) *Session {
	return &Session{
		id:            id,
		tags:          slices.Clone(tags),
		initTimestamp: now,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Tags() []string { return slices.Clone(s.tags) }

// HasEnded reports whether End has succeeded.
func (s *Session) HasEnded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endState != ""
}

// EndState returns the end state, or "" while the session is active.
func (s *Session) EndState() EndState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endState
}

// End moves the session to Ended. It fails without side effects when the
// session has already ended or state is not a known end state.
func (s *Session) End(state EndState, rating string, now time.Time) error {
	if !state.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEndState, state)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endState != "" {
		return ErrAlreadyEnded
	}
	s.endState = state
	s.rating = rating
	s.endTimestamp = now
	return nil
}

// Snapshot is the wire representation of a session.
type Snapshot struct {
	SessionID     string     `json:"session_id" yaml:"session_id"`
	Tags          []string   `json:"tags" yaml:"tags"`
	InitTimestamp time.Time  `json:"init_timestamp" yaml:"init_timestamp"`
	EndTimestamp  *time.Time `json:"end_timestamp,omitempty" yaml:"end_timestamp,omitempty"`
	EndState      EndState   `json:"end_state,omitempty" yaml:"end_state,omitempty"`
	Rating        string     `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// HasEnded reports whether the snapshot was taken after the session ended.
func (s Snapshot) HasEnded() bool { return s.EndState != "" }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		SessionID:     s.id,
		Tags:          slices.Clone(s.tags),
		InitTimestamp: s.initTimestamp,
		EndState:      s.endState,
		Rating:        s.rating,
	}
	if snap.Tags == nil {
		snap.Tags = []string{}
	}
	if s.endState != "" {
		end := s.endTimestamp
		snap.EndTimestamp = &end
	}
	return snap
}
