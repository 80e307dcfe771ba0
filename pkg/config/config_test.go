package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentops-ai/agentops-go/pkg/environment"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.WithDefaults()

	assert.Equal(t, "https://agentops-server-v2.fly.dev", cfg.Endpoint)
	assert.Equal(t, 1000, cfg.MaxWaitTime)
	assert.Equal(t, 100, cfg.MaxQueueSize)
	assert.True(t, cfg.AutoStart())
	assert.Equal(t, time.Second, cfg.FlushInterval())
	assert.Empty(t, cfg.APIKey)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
api_key: file-key
tags: [demo, ci]
endpoint: http://localhost:8787
max_wait_time: 250
max_queue_size: 10
auto_start_session: false
`)

	cfg, err := Load(t.Context(), path, environment.MapProvider{})
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, []string{"demo", "ci"}, cfg.Tags)
	assert.Equal(t, "http://localhost:8787", cfg.Endpoint)
	assert.Equal(t, 250*time.Millisecond, cfg.FlushInterval())
	assert.Equal(t, 10, cfg.MaxQueueSize)
	assert.False(t, cfg.AutoStart())
}

func TestLoadEnvFallback(t *testing.T) {
	t.Parallel()

	env := environment.MapProvider{
		EnvAPIKey:        "env-key",
		EnvOrgKey:        "env-org",
		EnvEnvDataOptOut: "true",
	}

	cfg, err := Load(t.Context(), writeConfig(t, "org_key: file-org\n"), env)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "file-org", cfg.OrgKey, "file values win over the environment")
	assert.True(t, cfg.EnvDataOptOut)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(t.Context(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		env     environment.MapProvider
	}{
		{name: "bad yaml", content: "api_key: [unterminated"},
		{name: "negative queue", content: "max_queue_size: -1"},
		{name: "bad endpoint", content: "endpoint: not a url"},
		{name: "bad opt out", content: "", env: environment.MapProvider{EnvEnvDataOptOut: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(t.Context(), writeConfig(t, tt.content), tt.env)
			require.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	autoStart := false
	in := Config{APIKey: "k", Tags: []string{"a"}, MaxQueueSize: 5, AutoStartSession: &autoStart}

	require.NoError(t, Save(path, in))

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "0123456789abcdef", OrgKey: "short"}.Redacted()
	assert.Equal(t, "0123****", cfg.APIKey)
	assert.Equal(t, "****", cfg.OrgKey)
	assert.Empty(t, Config{}.Redacted().APIKey)
}
