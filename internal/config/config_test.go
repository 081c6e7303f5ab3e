package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playreply.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
[ai.gemini]
api_key = "k"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.General.DefaultAI)
	assert.Equal(t, 20, cfg.General.MaxResults)
	assert.Equal(t, "file", cfg.History.Backend)
	assert.Equal(t, "reply_history.jsonl", cfg.History.Path)
	assert.Equal(t, ":8787", cfg.Server.Addr)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[general]
default_ai = "openai"
max_results = 5

[ai.openai]
api_key = "sk-test"
model = "gpt-4o-mini"
temperature = 0.4
max_tokens = 120

[history]
backend = "postgres"
dsn = "postgres://localhost/playreply"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.General.DefaultAI)
	assert.Equal(t, 5, cfg.General.MaxResults)
	assert.Equal(t, "postgres", cfg.History.Backend)

	ai := cfg.AISettings("openai")
	assert.Equal(t, "sk-test", ai.APIKey)
	assert.Equal(t, "gpt-4o-mini", ai.Model)
	assert.InDelta(t, 0.4, ai.Temperature, 1e-9)
	assert.Equal(t, 120, ai.MaxTokens)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PLAYREPLY_SERVER_ADDR", ":9999")
	path := writeConfig(t, `
[ai.gemini]
api_key = "k"

[server]
addr = ":8787"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestAISettingsUnknownProvider(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, AISettings{}, cfg.AISettings("gemini"))
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.General.DefaultAI = "gemini"
	cfg.AI = map[string]map[string]interface{}{
		"gemini": {"api_key": "k"},
	}
	cfg.History.Backend = "file"
	cfg.History.Path = "reply_history.jsonl"
	require.NoError(t, Validate(cfg))

	cfg.History.Backend = "postgres"
	cfg.History.DSN = ""
	assert.Error(t, Validate(cfg))

	cfg.History.DSN = "postgres://localhost/playreply"
	require.NoError(t, Validate(cfg))

	delete(cfg.AI["gemini"], "api_key")
	assert.Error(t, Validate(cfg))
}

func TestInitConfigRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "x = 1\n")
	assert.Error(t, InitConfig(path))

	fresh := filepath.Join(t.TempDir(), "new.toml")
	require.NoError(t, InitConfig(fresh))
	cfg, err := LoadConfig(fresh)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.General.DefaultAI)
}
