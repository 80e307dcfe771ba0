package environment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadEnvFile(t *testing.T) {
	t.Parallel()

	path := writeEnvFile(t, `
# comment
AGENTOPS_API_KEY=abc
export AGENTOPS_ORG_KEY = "org 1"
QUOTED='single'
EMPTY=
`)

	pairs, err := ReadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, []KeyValuePair{
		{Key: "AGENTOPS_API_KEY", Value: "abc"},
		{Key: "AGENTOPS_ORG_KEY", Value: "org 1"},
		{Key: "QUOTED", Value: "single"},
		{Key: "EMPTY", Value: ""},
	}, pairs)
}

func TestReadEnvFileInvalidLine(t *testing.T) {
	t.Parallel()

	_, err := ReadEnvFile(writeEnvFile(t, "NOT_A_PAIR\n"))
	require.ErrorContains(t, err, "invalid env file line")
}

func TestEnvFileProviderMissingFile(t *testing.T) {
	t.Parallel()

	p, err := NewEnvFileProvider(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	_, ok := p.Get(t.Context(), "ANY")
	assert.False(t, ok)
}

func TestMultiProviderFirstNonEmptyWins(t *testing.T) {
	t.Parallel()

	p := NewMultiProvider(
		MapProvider{"A": "", "B": "from-first"},
		MapProvider{"A": "from-second", "B": "ignored"},
	)

	v, ok := p.Get(t.Context(), "A")
	assert.True(t, ok)
	assert.Equal(t, "from-second", v)

	v, ok = p.Get(t.Context(), "B")
	assert.True(t, ok)
	assert.Equal(t, "from-first", v)

	_, ok = p.Get(t.Context(), "C")
	assert.False(t, ok)
}

func TestMultiProviderEmptyButSet(t *testing.T) {
	t.Parallel()

	v, ok := NewMultiProvider(MapProvider{"A": ""}).Get(t.Context(), "A")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestDefaultProvider(t *testing.T) {
	t.Setenv("AGENTOPS_TEST_FROM_OS", "os")

	path := writeEnvFile(t, "AGENTOPS_TEST_FROM_OS=file\nAGENTOPS_TEST_FROM_FILE=file\n")
	p, err := NewDefaultProvider(path)
	require.NoError(t, err)

	v, _ := p.Get(t.Context(), "AGENTOPS_TEST_FROM_OS")
	assert.Equal(t, "os", v)
	v, _ = p.Get(t.Context(), "AGENTOPS_TEST_FROM_FILE")
	assert.Equal(t, "file", v)
}
