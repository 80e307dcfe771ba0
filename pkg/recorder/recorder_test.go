package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/agentops-ai/agentops-go/pkg/clock"
	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

type recordingSender struct {
	mu      sync.Mutex
	batches [][]event.Stamped
	log     *[]string
	err     error
}

func (s *recordingSender) PostEvents(_ context.Context, events []event.Stamped) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]event.Stamped{}, events...))
	if s.log != nil {
		*s.log = append(*s.log, fmt.Sprintf("batch:%d", len(events)))
	}
	return s.err
}

func (s *recordingSender) Batches() [][]event.Stamped {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]event.Stamped{}, s.batches...)
}

func (s *recordingSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func actions(batches [][]event.Stamped) []string {
	var out []string
	for _, b := range batches {
		for _, e := range b {
			out = append(out, e.Record.(*event.ActionEvent).ActionType)
		}
	}
	return out
}

func newSession() *session.Session {
	return session.New("sess-1", nil, time.Now())
}

func closeRecorder(t *testing.T, r *Recorder) {
	t.Helper()
	require.NoError(t, r.Close(context.Background()))
}

func TestFlushShipsQueueInOrder(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(newSession(), sender)
	defer closeRecorder(t, r)

	for _, name := range []string{"a", "b", "c"} {
		require.True(t, r.Record(event.NewAction(name, nil, nil)))
	}
	assert.Equal(t, 3, r.Len())
	assert.Zero(t, sender.Calls())

	require.NoError(t, r.Flush(t.Context()))
	assert.Zero(t, r.Len())

	batches := sender.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a", "b", "c"}, actions(batches))
	for _, e := range batches[0] {
		assert.Equal(t, "sess-1", e.SessionID)
	}
}

func TestFlushEmptyQueueMakesNoCall(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(newSession(), sender)
	defer closeRecorder(t, r)

	require.NoError(t, r.Flush(t.Context()))
	require.NoError(t, r.Flush(t.Context()))
	assert.Zero(t, sender.Calls())
}

func TestSizeTriggeredFlush(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(newSession(), sender, WithMaxQueueSize(3))
	defer closeRecorder(t, r)

	for i := range 3 {
		r.Record(event.NewAction(fmt.Sprint(i), nil, nil))
	}
	assert.Equal(t, 3, r.Len())
	assert.Zero(t, sender.Calls())

	r.Record(event.NewAction("3", nil, nil))
	assert.Zero(t, r.Len(), "exceeding the limit drains the queue synchronously")

	require.Eventually(t, func() bool { return sender.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"0", "1", "2", "3"}, actions(sender.Batches()))
}

func TestDefaultQueueSizeBoundary(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(newSession(), sender)
	defer closeRecorder(t, r)

	for range DefaultMaxQueueSize {
		r.Record(event.NewAction("x", nil, nil))
	}
	assert.Equal(t, DefaultMaxQueueSize, r.Len())

	r.Record(event.NewAction("x", nil, nil))
	require.Eventually(t, func() bool { return sender.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, sender.Batches()[0], DefaultMaxQueueSize+1)
}

func TestTimerFlushWithFakeClock(t *testing.T) {
	t.Parallel()

	clk := clock.Fake(time.Unix(0, 0))
	sender := &recordingSender{}
	r := New(newSession(), sender, WithClock(clk), WithMaxWaitTime(time.Second))
	defer closeRecorder(t, r)
	r.Start(t.Context())
	clk.WaitForTimers(1)

	r.Record(event.NewAction("a", nil, nil))
	r.Record(event.NewAction("b", nil, nil))

	clk.Advance(500 * time.Millisecond)
	assert.Never(t, func() bool { return sender.Calls() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	clk.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool { return sender.Calls() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, actions(sender.Batches()))

	clk.Advance(time.Second)
	assert.Never(t, func() bool { return sender.Calls() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestTimerFlushWithRealClock(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(newSession(), sender, WithMaxWaitTime(50*time.Millisecond))
	defer closeRecorder(t, r)
	r.Start(t.Context())

	r.Record(event.NewAction("a", nil, nil))
	r.Record(event.NewAction("b", nil, nil))

	require.Eventually(t, func() bool { return sender.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, actions(sender.Batches()))
}

func TestStopTimer(t *testing.T) {
	t.Parallel()

	clk := clock.Fake(time.Unix(0, 0))
	sender := &recordingSender{}
	r := New(newSession(), sender, WithClock(clk))
	defer closeRecorder(t, r)
	r.Start(t.Context())
	clk.WaitForTimers(1)

	r.StopTimer()
	r.StopTimer()
	require.Eventually(t, func() bool { return clk.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)

	r.Record(event.NewAction("a", nil, nil))
	clk.Advance(10 * time.Second)
	assert.Equal(t, 1, r.Len())
	assert.Zero(t, sender.Calls())
}

func TestRecordWithoutSession(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(nil, sender)
	defer closeRecorder(t, r)

	assert.False(t, r.Record(event.NewAction("a", nil, nil)))
	assert.Zero(t, r.Len())

	r.SetSession(newSession())
	assert.True(t, r.Record(event.NewAction("a", nil, nil)))
	assert.False(t, r.Record(nil))
}

func TestRecordRejectsNilEvents(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(newSession(), sender)
	defer closeRecorder(t, r)

	for _, rec := range []event.Record{
		(*event.ActionEvent)(nil),
		(*event.LLMEvent)(nil),
		(*event.ToolEvent)(nil),
		(*event.ErrorEvent)(nil),
	} {
		assert.False(t, r.Record(rec), "%T", rec)
	}
	assert.Zero(t, r.Len())

	require.True(t, r.Record(event.NewAction("kept", nil, nil)))
	require.NotPanics(t, func() { require.NoError(t, r.Flush(t.Context())) })
	assert.Equal(t, []string{"kept"}, actions(sender.Batches()))
}

func TestRecordAfterSessionEndIsDropped(t *testing.T) {
	t.Parallel()

	sess := newSession()
	sender := &recordingSender{}
	r := New(sess, sender)
	defer closeRecorder(t, r)

	require.NoError(t, sess.End(session.Success, "", time.Now()))
	assert.False(t, r.Record(event.NewAction("late", nil, nil)))
	assert.Zero(t, r.Len())

	require.NoError(t, r.Flush(t.Context()))
	assert.Zero(t, sender.Calls())
}

func TestFailedBatchIsNotRequeued(t *testing.T) {
	t.Parallel()

	boom := errors.New("collector down")
	sender := &recordingSender{err: boom}
	r := New(newSession(), sender)
	defer closeRecorder(t, r)

	r.Record(event.NewAction("a", nil, nil))
	err := r.Flush(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Zero(t, r.Len())

	require.NoError(t, r.Flush(t.Context()))
	assert.Equal(t, 1, sender.Calls())
}

func TestJobsRunInSubmissionOrder(t *testing.T) {
	t.Parallel()

	var log []string
	sender := &recordingSender{log: &log}
	r := New(newSession(), sender, WithMaxQueueSize(1))
	defer closeRecorder(t, r)

	require.NoError(t, r.Submit("first", func(context.Context) error {
		log = append(log, "first")
		return nil
	}))
	r.Record(event.NewAction("a", nil, nil))
	r.Record(event.NewAction("b", nil, nil))

	err := r.Dispatch(t.Context(), "last", func(context.Context) error {
		log = append(log, "last")
		return errors.New("job failed")
	})
	require.EqualError(t, err, "job failed")

	assert.Equal(t, []string{"first", "batch:2", "last"}, log)
}

func TestClose(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	r := New(newSession(), sender)
	r.Start(t.Context())

	r.Record(event.NewAction("a", nil, nil))
	require.NoError(t, r.Close(t.Context()))
	assert.Equal(t, []string{"a"}, actions(sender.Batches()))

	assert.False(t, r.Record(event.NewAction("b", nil, nil)))
	require.ErrorIs(t, r.Submit("x", func(context.Context) error { return nil }), ErrClosed)
	require.ErrorIs(t, r.Dispatch(t.Context(), "x", func(context.Context) error { return nil }), ErrClosed)
	require.NoError(t, r.Close(t.Context()))
	require.NoError(t, r.Flush(t.Context()))
	assert.Equal(t, 1, sender.Calls())
}

func TestFlushHonoursContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	r := New(newSession(), &recordingSender{})
	defer func() {
		close(release)
		closeRecorder(t, r)
	}()

	require.NoError(t, r.Submit("block", func(context.Context) error {
		<-release
		return nil
	}))
	r.Record(event.NewAction("a", nil, nil))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.Flush(ctx), context.DeadlineExceeded)
}

func TestConcurrentRecordsLandExactlyOnce(t *testing.T) {
	t.Parallel()

	const workers, perWorker = 8, 200
	sender := &recordingSender{}
	r := New(newSession(), sender, WithMaxQueueSize(7))

	var wg sync.WaitGroup
	for w := range workers {
		wg.Go(func() {
			for i := range perWorker {
				r.Record(event.NewAction(fmt.Sprintf("%d:%d", w, i), nil, nil))
			}
		})
	}
	wg.Wait()
	require.NoError(t, r.Close(t.Context()))

	seen := map[string]int{}
	next := map[int]int{}
	for _, name := range actions(sender.Batches()) {
		seen[name]++
		var w, i int
		_, err := fmt.Sscanf(name, "%d:%d", &w, &i)
		require.NoError(t, err)
		assert.Equal(t, next[w], i, "worker %d delivered out of order", w)
		next[w] = i + 1
	}
	assert.Len(t, seen, workers*perWorker)
	for name, n := range seen {
		assert.Equal(t, 1, n, name)
	}
}

func TestFlushRecordsSpan(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	r := New(newSession(), &recordingSender{}, WithTracerProvider(tp))
	defer closeRecorder(t, r)

	r.Record(event.NewAction("a", nil, nil))
	r.Record(event.NewAction("b", nil, nil))
	require.NoError(t, r.Flush(t.Context()))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "agentops.recorder.flush", spans[0].Name())

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.EqualValues(t, 2, attrs["agentops.batch_size"])
	assert.Equal(t, "explicit", attrs["agentops.flush_trigger"])
}
