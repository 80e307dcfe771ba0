package agentops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/fake"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

func TestProcessHandle(t *testing.T) {
	require.Nil(t, Default())
	Record(event.NewAction("before init", nil, nil))
	require.NoError(t, EndSession(t.Context(), session.Success, ""))

	mock := fake.NewMockHTTPClient()
	opts := []Opt{WithHTTPClient(mock), WithClock(instantClock{}), WithoutSignalHandling()}

	first, err := Init(t.Context(), testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(context.Background()) })

	second, err := Init(t.Context(), testConfig(), opts...)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, Default())
	require.ErrorIs(t, StartSession(t.Context()), ErrSessionExists)

	Record(event.NewAction("global", nil, nil))
	require.NoError(t, EndSession(t.Context(), session.Success, ""))
	assert.Equal(t, []string{"/sessions", "/events", "/sessions"}, mock.Paths())

	require.NoError(t, Close(t.Context()))
	assert.Nil(t, Default())

	third, err := Init(t.Context(), testConfig(), opts...)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FromContext(t.Context()))
	RecordContext(t.Context(), event.NewAction("nowhere", nil, nil))

	client, mock := newTestClient(t, testConfig())
	ctx := WithClient(t.Context(), client)
	assert.Same(t, client, FromContext(ctx))

	RecordContext(ctx, event.NewAction("somewhere", nil, nil))
	require.NoError(t, client.Flush(ctx))
	assert.Contains(t, mock.Paths(), "/events")
}
