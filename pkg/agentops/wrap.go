package agentops

import (
	"context"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/clock"
	"github.com/agentops-ai/agentops-go/pkg/event"
)

// Event times of wrapped calls come from the recorder's clock when it has
// one (a *Client built WithClock) and from the wall clock otherwise.

// Wrap returns fn instrumented to record an ActionEvent named name for
// every call. The argument goes to params.args and the result to returns;
// both pass through unchanged.
func Wrap[P, R any](r EventRecorder, name string, fn func(P) R) func(P) R {
	now := nowFunc(r)
	return func(p P) R {
		start := now()
		out := fn(p)
		r.Record(newCallEvent(name, start, now(), []any{p}, out))
		return out
	}
}

// WrapErr is Wrap for fallible calls. A non-nil error is also recorded as
// an ErrorEvent triggered by the call's ActionEvent.
func WrapErr[P, R any](r EventRecorder, name string, fn func(context.Context, P) (R, error)) func(context.Context, P) (R, error) {
	now := nowFunc(r)
	return func(ctx context.Context, p P) (R, error) {
		start := now()
		out, err := fn(ctx, p)

		end := now()
		action := newCallEvent(name, start, end, []any{p}, out)
		r.Record(action)
		if err != nil {
			e := event.NewError(action, err)
			e.Timestamp = end
			r.Record(e)
		}
		return out, err
	}
}

// WrapVariadic instruments a function taking any number of arguments.
func WrapVariadic(r EventRecorder, name string, fn func(args ...any) any) func(args ...any) any {
	now := nowFunc(r)
	return func(args ...any) any {
		start := now()
		out := fn(args...)
		r.Record(newCallEvent(name, start, now(), args, out))
		return out
	}
}

func newCallEvent(name string, start, end time.Time, args []any, returns any) *event.ActionEvent {
	if args == nil {
		args = []any{}
	}
	e := event.NewAction(name, map[string]any{"args": args}, returns)
	e.InitTimestamp = start
	e.EndTimestamp = end
	return e
}

func nowFunc(r EventRecorder) func() time.Time {
	if c, ok := r.(interface{ Clock() clock.Clock }); ok {
		return c.Clock().Now
	}
	return time.Now
}
