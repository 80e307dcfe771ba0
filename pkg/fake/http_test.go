package fake

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockHTTPClientCapturesRequests(t *testing.T) {
	t.Parallel()

	m := NewMockHTTPClient()
	m.SetResponder(FailFirst(1, http.StatusBadGateway))

	for range 2 {
		resp, err := m.Post("http://collector.test/events", "application/json", strings.NewReader(`{"events":[]}`))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, 2, m.GetRequestCount())
	assert.Equal(t, []string{"/events", "/events"}, m.Paths())

	var body map[string]any
	require.NoError(t, m.DecodeBody(1, &body))
	assert.Contains(t, body, "events")
}

func TestFailFirst(t *testing.T) {
	t.Parallel()

	r := FailFirst(2, http.StatusServiceUnavailable)
	for i, want := range []int{503, 503, 200, 200} {
		resp, err := r(i, nil)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode)
	}
}

func TestErrorResponder(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	m := NewMockHTTPClient()
	m.SetResponder(Error(boom))

	_, err := m.Get("http://collector.test/ping")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.GetRequestCount())
}
