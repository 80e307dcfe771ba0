package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stamped is a queued record together with the id of the session it was
// recorded in. The record itself never carries the session id; it is added
// to the JSON object when the batch is sent.
type Stamped struct {
	SessionID string
	Record    Record
}

// Stamp binds r to sessionID.
func Stamp(sessionID string, r Record) Stamped {
	return Stamped{SessionID: sessionID, Record: r}
}

// MarshalJSON encodes the record as a JSON object with a session_id member.
func (s Stamped) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("event %T is not a JSON object: %w", s.Record, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("event %T is nil", s.Record)
	}

	sessionID, err := json.Marshal(s.SessionID)
	if err != nil {
		return nil, err
	}
	fields["session_id"] = sessionID

	return json.Marshal(fields)
}

// IsNil reports whether r is nil or a nil pointer to one of the event types.
func IsNil(r Record) bool {
	switch r := r.(type) {
	case nil:
		return true
	case *ActionEvent:
		return r == nil
	case *LLMEvent:
		return r == nil
	case *ToolEvent:
		return r == nil
	case *ErrorEvent:
		return r == nil
	case *Envelope:
		return r == nil
	}
	return false
}

// FillDefaults sets the ids and timestamps that a hand-written record may
// omit. Fields that are already set are left alone.
func FillDefaults(r Record, now time.Time) {
	if IsNil(r) {
		return
	}
	switch r := r.(type) {
	case *ErrorEvent:
		if r.Timestamp.IsZero() {
			r.Timestamp = now
		}
		if r.TriggerEvent != nil {
			FillDefaults(r.TriggerEvent, now)
		}
	case Event:
		env := r.Base()
		if env.ID == "" {
			env.ID = uuid.NewString()
		}
		if env.AgentID == "" {
			env.AgentID = uuid.NewString()
		}
		if env.InitTimestamp.IsZero() {
			env.InitTimestamp = now
		}
		if env.EndTimestamp.IsZero() {
			env.EndTimestamp = now
		}
	}
}
