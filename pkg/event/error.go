package event

import (
	"fmt"
	"strings"
	"time"
)

// ErrorEvent records a failure, optionally linked to the event that
// triggered it.
type ErrorEvent struct {
	TriggerEvent Event     `json:"trigger_event,omitempty"`
	ErrorType    string    `json:"error_type,omitempty"`
	Code         string    `json:"code,omitempty"`
	Details      string    `json:"details,omitempty"`
	Logs         string    `json:"logs,omitempty"`
	Timestamp    time.Time `json:"timestamp"`

	// Exception is the Go error the event was built from. It is not sent.
	Exception error `json:"-"`
}

func (*ErrorEvent) record() {}

// NewError builds an ErrorEvent from err. ErrorType defaults to the
// dynamic type of err and Details to its message.
// Timestamp is the wall clock time of the call.
func NewError(trigger Event, err error) *ErrorEvent {
	e := &ErrorEvent{
		TriggerEvent: trigger,
		Exception:    err,
		Timestamp:    time.Now(),
	}
	if err != nil {
		e.ErrorType = strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
		e.Details = err.Error()
	}
	return e
}
