// Package event defines the records an agent emits during a session.
//
// Actions, LLM calls and tool invocations share an Envelope and implement
// Event. ErrorEvent has no envelope and no event_type; it implements Record
// but not Event so the two shapes stay distinct at the type level.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type discriminates enveloped events on the wire.
type Type string

const (
	TypeAction Type = "action"
	TypeLLM    Type = "llm"
	TypeTool   Type = "tool"
)

// Record is anything the recorder queues. The interface is sealed.
type Record interface {
	record()
}

// Event is a Record carrying the common Envelope.
type Event interface {
	Record
	Base() *Envelope
}

// Envelope holds the fields shared by every Event variant.
type Envelope struct {
	EventType     Type           `json:"event_type"`
	Params        map[string]any `json:"params,omitempty"`
	Returns       any            `json:"returns,omitempty"`
	InitTimestamp time.Time      `json:"init_timestamp"`
	EndTimestamp  time.Time      `json:"end_timestamp"`
	ID            string         `json:"id"`
	AgentID       string         `json:"agent_id"`
}

// NewEnvelope returns an envelope of type t with fresh ids and both
// timestamps set to now.
func NewEnvelope(t Type, now time.Time) Envelope {
	return Envelope{
		EventType:     t,
		InitTimestamp: now,
		EndTimestamp:  now,
		ID:            uuid.NewString(),
		AgentID:       uuid.NewString(),
	}
}

// Base returns the envelope itself, so a bare *Envelope is a valid generic
// Event and every variant exposes its shared fields.
func (e *Envelope) Base() *Envelope { return e }

func (*Envelope) record() {}

// ActionEvent records a generic agent action, typically a wrapped function call.
type ActionEvent struct {
	Envelope
	ActionType string `json:"action_type,omitempty"`
	Logs       string `json:"logs,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`
}

// NewAction returns an ActionEvent stamped with the wall clock.
func NewAction(actionType string, params map[string]any, returns any) *ActionEvent {
	e := &ActionEvent{
		Envelope:   NewEnvelope(TypeAction, time.Now()),
		ActionType: actionType,
	}
	e.Params = params
	e.Returns = returns
	return e
}

// LLMEvent records one LLM call. Prompt and Completion are strings or
// structured message lists, as the adapter that produced them sees fit.
type LLMEvent struct {
	Envelope
	ThreadID         string `json:"thread_id,omitempty"`
	Prompt           any    `json:"prompt,omitempty"`
	PromptTokens     int64  `json:"prompt_tokens,omitempty"`
	Completion       any    `json:"completion,omitempty"`
	CompletionTokens int64  `json:"completion_tokens,omitempty"`
	Model            string `json:"model,omitempty"`
}

// NewLLM returns an LLMEvent stamped with the wall clock.
func NewLLM(model string, prompt, completion any) *LLMEvent {
	return &LLMEvent{
		Envelope:   NewEnvelope(TypeLLM, time.Now()),
		Model:      model,
		Prompt:     prompt,
		Completion: completion,
	}
}

// ToolEvent records a tool invocation.
type ToolEvent struct {
	Envelope
	Name string `json:"name,omitempty"`
	Logs any    `json:"logs,omitempty"`
}

// NewTool returns a ToolEvent stamped with the wall clock.
func NewTool(name string, params map[string]any, returns any) *ToolEvent {
	e := &ToolEvent{
		Envelope: NewEnvelope(TypeTool, time.Now()),
		Name:     name,
	}
	e.Params = params
	e.Returns = returns
	return e
}
