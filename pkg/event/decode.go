package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownType = errors.New("unknown event type")

// Decode parses one JSON object into the matching Record variant. Objects
// with an event_type decode as that variant; objects without one decode as
// an ErrorEvent when they carry error_type or trigger_event.
func Decode(data []byte) (Record, error) {
	var probe struct {
		EventType    Type            `json:"event_type"`
		ErrorType    *string         `json:"error_type"`
		TriggerEvent json.RawMessage `json:"trigger_event"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	var r Record
	switch probe.EventType {
	case TypeAction:
		r = &ActionEvent{}
	case TypeLLM:
		r = &LLMEvent{}
	case TypeTool:
		r = &ToolEvent{}
	case "":
		if probe.ErrorType == nil && probe.TriggerEvent == nil {
			return nil, fmt.Errorf("%w: missing event_type", ErrUnknownType)
		}
		return decodeError(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, probe.EventType)
	}

	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", probe.EventType, err)
	}
	return r, nil
}

func decodeError(data []byte) (*ErrorEvent, error) {
	type plain ErrorEvent
	var raw struct {
		plain
		TriggerEvent json.RawMessage `json:"trigger_event"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode error event: %w", err)
	}

	e := ErrorEvent(raw.plain)
	if len(raw.TriggerEvent) > 0 && string(raw.TriggerEvent) != "null" {
		trigger, err := Decode(raw.TriggerEvent)
		if err != nil {
			return nil, fmt.Errorf("failed to decode trigger_event: %w", err)
		}
		ev, ok := trigger.(Event)
		if !ok {
			return nil, errors.New("trigger_event must be an action, llm or tool event")
		}
		e.TriggerEvent = ev
	}
	return &e, nil
}
