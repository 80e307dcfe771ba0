package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentops-ai/agentops-go/pkg/session"
)

func TestPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSessionSummary("abc", session.Success, 3)
	p.PrintError(errors.New("boom"))
	p.PrintListening("127.0.0.1:8787")

	out := buf.String()
	assert.Contains(t, out, "Recorded 3 events in session abc (")
	assert.Contains(t, out, string(session.Success))
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "127.0.0.1:8787")
}
