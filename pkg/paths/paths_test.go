package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigPaths(t *testing.T) {
	t.Setenv("HOME", "/home/agent")

	assert.Equal(t, filepath.Join("/home/agent", ".config", "agentops"), GetConfigDir())
	assert.Equal(t, filepath.Join("/home/agent", ".config", "agentops", "config.yaml"), GetConfigFile())
	assert.Equal(t, filepath.Join("/home/agent", ".agentops"), GetDataDir())
}
