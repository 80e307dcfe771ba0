package agentops

import (
	"context"
	"sync"

	"github.com/agentops-ai/agentops-go/pkg/config"
	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

var (
	globalMu     sync.Mutex
	globalClient *Client
)

// Init builds the process-wide client. Later calls return the existing
// client and ignore their arguments until Close is called.
func Init(ctx context.Context, cfg config.Config, opts ...Opt) (*Client, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalClient != nil {
		globalClient.logger.Debug("Already initialized, ignoring new configuration")
		return globalClient, nil
	}

	client, err := New(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	globalClient = client
	return client, nil
}

// Default returns the process-wide client, or nil before Init.
func Default() *Client {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalClient
}

// Record records rec with the process-wide client.
func Record(rec event.Record) {
	if c := Default(); c != nil {
		c.Record(rec)
	}
}

// StartSession starts the process-wide client's session.
func StartSession(ctx context.Context, tags ...string) error {
	if c := Default(); c != nil {
		return c.StartSession(ctx, tags...)
	}
	return nil
}

// EndSession ends the process-wide client's session.
func EndSession(ctx context.Context, state session.EndState, rating string) error {
	if c := Default(); c != nil {
		return c.EndSession(ctx, state, rating)
	}
	return nil
}

// Close shuts the process-wide client down and forgets it, so Init can
// build a new one.
func Close(ctx context.Context) error {
	globalMu.Lock()
	c := globalClient
	globalClient = nil
	globalMu.Unlock()

	if c == nil {
		return nil
	}
	return c.Shutdown(ctx)
}
