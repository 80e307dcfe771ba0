// Package agentops is the entry point of the SDK. A Client owns one
// session, records events against it and ships them to the AgentOps API.
//
//	client, err := agentops.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Shutdown(ctx)
//
//	client.Record(event.NewLLM("gpt-4o", prompt, completion))
//	return client.EndSession(ctx, session.Success, "")
//
// Without an API key the client is disabled: it never creates a session,
// starts a goroutine or touches the network, and every method is a no-op.
package agentops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/agentops-ai/agentops-go/pkg/clock"
	"github.com/agentops-ai/agentops-go/pkg/config"
	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/logging"
	"github.com/agentops-ai/agentops-go/pkg/recorder"
	"github.com/agentops-ai/agentops-go/pkg/session"
	"github.com/agentops-ai/agentops-go/pkg/transport"
)

var ErrSessionExists = errors.New("a session has already been started")

// EventRecorder is what instrumentors and Wrap combinators record into.
type EventRecorder interface {
	Record(rec event.Record)
}

// Instrumentor adapts an external library. It builds events itself and
// passes them to the recorder it is given.
type Instrumentor interface {
	Instrument(r EventRecorder)
}

type Client struct {
	cfg       config.Config
	logger    *logging.Logger
	clock     clock.Clock
	transport *transport.Transport
	recorder  *recorder.Recorder
	enabled   bool

	mu          sync.Mutex
	sess        *session.Session
	closed      bool
	stopSignals func()
}

// New builds a client from cfg. Empty credentials fall back to the
// AGENTOPS_API_KEY and AGENTOPS_ORG_KEY environment variables.
func New(ctx context.Context, cfg config.Config, opts ...Opt) (*Client, error) {
	o := options{handleSignals: true, exit: os.Exit}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(config.EnvAPIKey)
	}
	if cfg.OrgKey == "" {
		cfg.OrgKey = os.Getenv(config.EnvOrgKey)
	}
	cfg = cfg.WithDefaults()

	c := &Client{
		cfg:    cfg,
		logger: logging.New(o.logger),
		clock:  o.clock,
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}

	if cfg.APIKey == "" {
		c.logger.Info("API key not provided. Session data will not be recorded.")
		return c, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	transportOpts := []transport.Opt{
		transport.WithClock(c.clock),
		transport.WithLogger(c.logger),
	}
	recorderOpts := []recorder.Opt{
		recorder.WithClock(c.clock),
		recorder.WithLogger(c.logger),
		recorder.WithMaxQueueSize(cfg.MaxQueueSize),
		recorder.WithMaxWaitTime(cfg.FlushInterval()),
	}
	if o.httpClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(o.httpClient))
	}
	if o.tracerProvider != nil {
		transportOpts = append(transportOpts, transport.WithTracerProvider(o.tracerProvider))
		recorderOpts = append(recorderOpts, recorder.WithTracerProvider(o.tracerProvider))
	}

	c.transport = transport.New(cfg.Endpoint, cfg.APIKey, cfg.OrgKey, transportOpts...)
	c.recorder = recorder.New(nil, c.transport, recorderOpts...)
	c.enabled = true

	if cfg.AutoStart() {
		c.mu.Lock()
		c.startSessionLocked(cfg.Tags)
		c.mu.Unlock()
	}
	c.recorder.Start(ctx)

	if o.handleSignals {
		c.stopSignals = c.watchSignals(o.signals, o.exit)
	}

	for _, i := range o.instrumentors {
		i.Instrument(c)
	}

	return c, nil
}

// Clock returns the clock that stamps sessions and wrapped calls.
func (c *Client) Clock() clock.Clock {
	return c.clock
}

// Enabled reports whether the client records anything at all.
func (c *Client) Enabled() bool {
	return c.enabled
}

// SessionID returns the id of the current session, or "" if none.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.ID()
}

// Session returns the current session, or nil.
func (c *Client) Session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// StartSession opens the client's session when it was built with
// auto_start_session off. A client runs at most one session.
func (c *Client) StartSession(_ context.Context, tags ...string) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		return ErrSessionExists
	}
	if len(tags) == 0 {
		tags = c.cfg.Tags
	}
	c.startSessionLocked(tags)
	return nil
}

func (c *Client) startSessionLocked(tags []string) {
	sess := session.New(uuid.NewString(), tags, c.clock.Now())
	c.sess = sess
	c.recorder.SetSession(sess)

	snap := sess.Snapshot()
	err := c.recorder.Submit("create session", func(ctx context.Context) error {
		if _, err := c.transport.PostSession(ctx, snap); err != nil {
			c.logger.Error("Failed to create session", "session_id", snap.SessionID, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("Session not sent", "session_id", snap.SessionID, "error", err)
	}

	c.logger.Debug("Session started", "session_id", snap.SessionID, "tags", snap.Tags)
}

// Record queues rec in the current session.
func (c *Client) Record(rec event.Record) {
	if !c.enabled {
		return
	}
	c.recorder.Record(rec)
}

// Flush ships queued events now and waits for them to be delivered.
func (c *Client) Flush(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.recorder.Flush(ctx)
}

// EndSession ends the session with state and an optional rating: it stops
// the flush timer, ships what is queued, then sends the final session
// state. Ending a session that never started or has already ended only
// logs a warning.
func (c *Client) EndSession(ctx context.Context, state session.EndState, rating string) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	if sess == nil {
		c.logger.Warn("There is no session to end.")
		return nil
	}
	if err := sess.End(state, rating, c.clock.Now()); err != nil {
		if errors.Is(err, session.ErrAlreadyEnded) {
			c.logger.Warn("The session has already been ended.", "session_id", sess.ID())
			return nil
		}
		return err
	}

	c.recorder.StopTimer()

	var errs []error
	if err := c.recorder.Flush(ctx); err != nil {
		errs = append(errs, err)
	}

	snap := sess.Snapshot()
	err := c.recorder.Dispatch(ctx, "end session", func(ctx context.Context) error {
		_, err := c.transport.PostSession(ctx, snap)
		return err
	})
	if err != nil {
		c.logger.Error("Failed to send session end", "session_id", snap.SessionID, "error", err)
		errs = append(errs, fmt.Errorf("failed to end session %s: %w", snap.SessionID, err))
	}

	c.logger.Debug("Session ended", "session_id", snap.SessionID, "end_state", snap.EndState)
	return errors.Join(errs...)
}

func (c *Client) hasActiveSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && !c.sess.HasEnded()
}

// Shutdown ends a still-active session as Indeterminate, delivers anything
// pending and releases the client's goroutines and signal handlers. It is
// safe to call more than once.
func (c *Client) Shutdown(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stop := c.stopSignals
	c.mu.Unlock()

	if stop != nil {
		stop()
	}

	var errs []error
	if c.hasActiveSession() {
		if err := c.EndSession(ctx, session.Indeterminate, ""); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.recorder.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
