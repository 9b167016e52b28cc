package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.MaxPortAttempts)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "key/api_failure_count.txt", cfg.Counter.File)
	assert.Equal(t, 3, cfg.Counter.Threshold)
	assert.Equal(t, "styles.json", cfg.Styles.File)
	assert.False(t, cfg.History.Enabled)
	assert.Empty(t, cfg.APIKey())
}

func TestLoadPartialFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9100
ai:
  provider: openai
  openai:
    api_key: sk-from-file
    timeout: 30s
counter:
  backend: redis
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.MaxPortAttempts)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "sk-from-file", cfg.APIKey())
	assert.Equal(t, 30*time.Second, cfg.AI.OpenAI.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.OpenAI.Model)
	assert.Equal(t, CounterBackendRedis, cfg.Counter.Backend)
	assert.Equal(t, "prompt-forge:api_failure_count", cfg.Counter.Redis.Key)
	assert.Equal(t, 3, cfg.Counter.Threshold)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("HISTORY_DSN", "file::memory:")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey())
	assert.Equal(t, "file::memory:", cfg.History.DSN)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
