package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 0.6, cfg.Workflow.AcceptConfidence)
	assert.Equal(t, 3, cfg.Workflow.MaxSaveRetries)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DECKWRIGHT_REDIS_ADDR", "redis:6379")
	t.Setenv("DECKWRIGHT_LLM_API_KEY", "sk-test")
	t.Setenv("DECKWRIGHT_WORKFLOW_ACCEPT_CONFIDENCE", "0.8")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 0.8, cfg.Workflow.AcceptConfidence)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deckwright.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
llm:
  model: gpt-4.1
`), 0o600))
	t.Setenv("DECKWRIGHT_HTTP_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	// Environment wins over the file.
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/deckwright.yaml")
	assert.Error(t, err)
}
