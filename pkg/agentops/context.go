package agentops

import (
	"context"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

type contextKey string

const clientContextKey contextKey = "agentops_client"

// WithClient adds a client to the context.
func WithClient(ctx context.Context, client *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

// FromContext retrieves the client from context.
func FromContext(ctx context.Context) *Client {
	if client, ok := ctx.Value(clientContextKey).(*Client); ok {
		return client
	}
	return nil
}

// RecordContext records rec with the client carried by ctx, if any.
func RecordContext(ctx context.Context, rec event.Record) {
	if client := FromContext(ctx); client != nil {
		client.Record(rec)
	}
}
