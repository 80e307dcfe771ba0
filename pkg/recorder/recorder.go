// Package recorder queues session events and ships them in batches.
//
// Events are flushed when the queue grows past its size limit, on every
// tick of the flush timer, and on explicit Flush or Close. All deliveries
// run one at a time on a single goroutine in the order they were
// submitted, so batches reach the server in the order events were
// recorded.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentops-ai/agentops-go/pkg/clock"
	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/logging"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

const (
	// DefaultMaxQueueSize is the queue length past which a flush starts.
	DefaultMaxQueueSize = 100
	// DefaultMaxWaitTime is the interval of the periodic flush.
	DefaultMaxWaitTime = time.Second

	tracerName = "github.com/agentops-ai/agentops-go/pkg/recorder"
)

// ErrClosed is returned by Submit and Dispatch after Close.
var ErrClosed = errors.New("recorder is closed")

// Sender ships one batch of stamped events.
type Sender interface {
	PostEvents(ctx context.Context, events []event.Stamped) error
}

// Job is a unit of work run on the delivery goroutine.
type Job func(ctx context.Context) error

type job struct {
	name string
	ctx  context.Context
	run  Job
	done chan error
}

type Recorder struct {
	sender       Sender
	clock        clock.Clock
	logger       *logging.Logger
	tracer       trace.Tracer
	maxQueueSize int
	maxWaitTime  time.Duration

	mu     sync.Mutex
	sess   *session.Session
	queue  []event.Stamped
	outbox []*job
	closed bool
	bgCtx  context.Context

	wake     chan struct{}
	loopDone chan struct{}

	timerOnce sync.Once
	stopOnce  sync.Once
	stopTimer chan struct{}
}

type Opt func(*Recorder)

func WithClock(c clock.Clock) Opt {
	return func(r *Recorder) { r.clock = c }
}

func WithLogger(l *logging.Logger) Opt {
	return func(r *Recorder) { r.logger = l }
}

func WithTracerProvider(tp trace.TracerProvider) Opt {
	return func(r *Recorder) { r.tracer = tp.Tracer(tracerName) }
}

// WithMaxQueueSize sets how many events may wait before a record triggers
// an immediate flush. Values below 1 are ignored.
func WithMaxQueueSize(n int) Opt {
	return func(r *Recorder) {
		if n > 0 {
			r.maxQueueSize = n
		}
	}
}

// WithMaxWaitTime sets the flush timer interval. Values below 1ns are
// ignored.
func WithMaxWaitTime(d time.Duration) Opt {
	return func(r *Recorder) {
		if d > 0 {
			r.maxWaitTime = d
		}
	}
}

// New returns a Recorder for sess and starts its delivery goroutine. A nil
// sess disables recording until SetSession is called. The flush timer is
// not running until Start.
func New(sess *session.Session, sender Sender, opts ...Opt) *Recorder {
	r := &Recorder{
		sender:       sender,
		sess:         sess,
		maxQueueSize: DefaultMaxQueueSize,
		maxWaitTime:  DefaultMaxWaitTime,
		bgCtx:        context.Background(),
		wake:         make(chan struct{}, 1),
		loopDone:     make(chan struct{}),
		stopTimer:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = clock.Real()
	}
	if r.logger == nil {
		r.logger = logging.New(nil)
	}
	if r.tracer == nil {
		r.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}

	go r.deliver()
	return r
}

// Start launches the flush timer. Background flushes run with a context
// derived from ctx that is never cancelled. Calling Start again is a no-op.
func (r *Recorder) Start(ctx context.Context) {
	r.timerOnce.Do(func() {
		r.mu.Lock()
		r.bgCtx = context.WithoutCancel(ctx)
		r.mu.Unlock()

		ticker := r.clock.NewTicker(r.maxWaitTime)
		go r.runTimer(ticker)
	})
}

// StopTimer stops the flush timer. Queued events stay queued until the
// next Flush or Close.
func (r *Recorder) StopTimer() {
	r.stopOnce.Do(func() { close(r.stopTimer) })
}

// SetSession installs the session events are recorded against.
func (r *Recorder) SetSession(sess *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sess = sess
}

// Record stamps rec with the active session id and queues it. It reports
// whether the event was accepted; events are dropped, with a diagnostic,
// when there is no session, the session has ended or the recorder is
// closed.
func (r *Recorder) Record(rec event.Record) bool {
	if event.IsNil(rec) {
		r.logger.Warn("Event not recorded: event is nil")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.sess == nil:
		r.logger.Info("Event not recorded: no active session")
		return false
	case r.sess.HasEnded():
		r.logger.Warn("Event not recorded: session has already ended", "session_id", r.sess.ID())
		return false
	case r.closed:
		r.logger.Warn("Event not recorded: recorder is closed", "session_id", r.sess.ID())
		return false
	}

	r.queue = append(r.queue, event.Stamp(r.sess.ID(), rec))
	if len(r.queue) > r.maxQueueSize {
		r.flushLocked(r.bgCtx, "size", false)
	}
	return true
}

// Flush ships everything queued so far and waits for the batch to be
// delivered. An empty queue makes no network call. A failed batch is
// dropped, not re-queued.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	j := r.flushLocked(ctx, "explicit", true)
	r.mu.Unlock()

	if j == nil {
		return nil
	}
	return r.wait(ctx, j)
}

// Submit queues fn on the delivery goroutine behind every batch and job
// submitted before it, without waiting for it to run.
func (r *Recorder) Submit(name string, fn Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.enqueueLocked(&job{name: name, ctx: r.bgCtx, run: fn})
	return nil
}

// Dispatch runs fn on the delivery goroutine, in order, and returns its
// result.
func (r *Recorder) Dispatch(ctx context.Context, name string, fn Job) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	j := &job{name: name, ctx: ctx, run: fn, done: make(chan error, 1)}
	r.enqueueLocked(j)
	r.mu.Unlock()

	return r.wait(ctx, j)
}

// Close stops the timer, flushes what is left, waits for every pending
// delivery and stops the delivery goroutine. Later calls return nil.
func (r *Recorder) Close(ctx context.Context) error {
	r.StopTimer()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	j := r.flushLocked(ctx, "close", true)
	r.closed = true
	r.signalLocked()
	r.mu.Unlock()

	var err error
	if j != nil {
		err = r.wait(ctx, j)
	}

	select {
	case <-r.loopDone:
	case <-ctx.Done():
		if err == nil {
			err = fmt.Errorf("waiting for pending deliveries: %w", ctx.Err())
		}
	}
	return err
}

// Len returns the number of queued events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// flushLocked drains the queue and submits it as one batch. Draining and
// submitting under the same lock hold keeps batches in record order.
func (r *Recorder) flushLocked(ctx context.Context, trigger string, wait bool) *job {
	if len(r.queue) == 0 {
		return nil
	}
	batch := r.queue
	r.queue = nil

	j := &job{
		name: "flush " + trigger,
		ctx:  ctx,
		run:  r.sendBatch(batch, trigger),
	}
	if wait {
		j.done = make(chan error, 1)
	}
	r.enqueueLocked(j)
	return j
}

func (r *Recorder) sendBatch(batch []event.Stamped, trigger string) Job {
	return func(ctx context.Context) error {
		ctx, span := r.tracer.Start(ctx, "agentops.recorder.flush", trace.WithAttributes(
			attribute.Int("agentops.batch_size", len(batch)),
			attribute.String("agentops.flush_trigger", trigger),
		))
		defer span.End()

		if err := r.sender.PostEvents(ctx, batch); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Error("Failed to flush events", "error", err, "events", len(batch), "trigger", trigger)
			return fmt.Errorf("failed to flush %d events: %w", len(batch), err)
		}

		r.logger.Debug("Flushed events", "events", len(batch), "trigger", trigger)
		return nil
	}
}

func (r *Recorder) enqueueLocked(j *job) {
	r.outbox = append(r.outbox, j)
	r.signalLocked()
}

func (r *Recorder) signalLocked() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Recorder) wait(ctx context.Context, j *job) error {
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) deliver() {
	defer close(r.loopDone)

	for {
		r.mu.Lock()
		if len(r.outbox) == 0 {
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return
			}
			<-r.wake
			continue
		}
		j := r.outbox[0]
		r.outbox[0] = nil
		r.outbox = r.outbox[1:]
		r.mu.Unlock()

		err := j.run(j.ctx)
		if err != nil && j.done == nil {
			r.logger.Debug("Background delivery failed", "job", j.name, "error", err)
		}
		if j.done != nil {
			j.done <- err
		}
	}
}

func (r *Recorder) runTimer(ticker *clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-r.stopTimer:
			return
		case <-ticker.C:
			r.mu.Lock()
			if !r.closed {
				r.flushLocked(r.bgCtx, "timer", false)
			}
			r.mu.Unlock()
		}
	}
}
