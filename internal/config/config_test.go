package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MATHVERIFY_ORACLE_URL", "MATHVERIFY_DB", "MATHVERIFY_STORE_DRIVER",
		"MATHVERIFY_LOG_LEVEL", "MATHVERIFY_TIMEZONE", "MATHVERIFY_LLM_PROVIDER",
		"MATHVERIFY_ANTHROPIC_API_KEY", "MATHVERIFY_OPENAI_API_KEY",
		"MATHVERIFY_GEMINI_API_KEY", "MATHVERIFY_OPENROUTER_API_KEY",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
oracle:
  base_url: http://oracle:9000
  timeout: 2s
  batch: false
numeric:
  samples: 11
  domain_min: -5
  domain_max: 5
mastery:
  timezone: Asia/Tokyo
  event_quality: 4
partial_credit:
  enabled: true
  max_tokens: 256
llm:
  provider: mock
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://oracle:9000", cfg.Oracle.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Oracle.Timeout)
	assert.False(t, cfg.Oracle.Batch)
	assert.Equal(t, 11, cfg.Numeric.Samples)
	// Unset keys keep their defaults.
	assert.Equal(t, 1e-6, cfg.Numeric.AbsTol)
	assert.Equal(t, 4, cfg.Mastery.EventQuality)
	assert.True(t, cfg.PartialCredit.Enabled)
	assert.Equal(t, 256, cfg.PartialCredit.MaxTokens)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "oracle: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("oracle url and db", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MATHVERIFY_ORACLE_URL", "http://env-oracle")
		t.Setenv("MATHVERIFY_DB", "/tmp/mv.db")
		t.Setenv("MATHVERIFY_TIMEZONE", "Europe/Paris")

		cfg, err := Load(writeConfig(t, "oracle:\n  base_url: http://file-oracle\n"))
		require.NoError(t, err)
		assert.Equal(t, "http://env-oracle", cfg.Oracle.BaseURL)
		assert.Equal(t, "/tmp/mv.db", cfg.Store.DSN)
		assert.Equal(t, "Europe/Paris", cfg.Mastery.Timezone)
	})

	t.Run("provider api key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MATHVERIFY_LLM_PROVIDER", "openai")
		t.Setenv("MATHVERIFY_OPENAI_API_KEY", "sk-env")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Equal(t, "sk-env", cfg.LLM.OpenAI.APIKey)
	})

	t.Run("discovers vendor key when partial credit needs one", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg, err := Load(writeConfig(t, "partial_credit:\n  enabled: true\nllm:\n  timeout: 7s\n"))
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
		assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
		assert.Equal(t, 7*time.Second, cfg.LLM.Timeout)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("no discovery when partial credit is off", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.LLM.Provider)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no oracle url", func(c *Config) { c.Oracle.BaseURL = "" }, "oracle.base_url"},
		{"bad batch version", func(c *Config) { c.Oracle.MinBatchVersion = "latest" }, "semantic version"},
		{"version without v", func(c *Config) { c.Oracle.MinBatchVersion = "1.3.0" }, ""},
		{"empty numeric domain", func(c *Config) { c.Numeric.DomainMin = 3; c.Numeric.DomainMax = 3 }, "numeric domain"},
		{"empty normalize domain", func(c *Config) { c.Normalize.DomainMax = -20 }, "normalize domain"},
		{"bad timezone", func(c *Config) { c.Mastery.Timezone = "Mars/Olympus" }, "mastery.timezone"},
		{"event quality", func(c *Config) { c.Mastery.EventQuality = 6 }, "event_quality"},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, "unknown store driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "store.dsn"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"partial credit without key", func(c *Config) { c.PartialCredit.Enabled = true }, "API key"},
		{"partial credit with mock", func(c *Config) {
			c.PartialCredit.Enabled = true
			c.LLM.Provider = "mock"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestStoreDSN(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Store.DSN = filepath.Join(dir, "nested", "mv.db")

	dsn, err := cfg.StoreDSN()
	require.NoError(t, err)
	assert.Equal(t, cfg.Store.DSN, dsn)
	assert.DirExists(t, filepath.Join(dir, "nested"))
}

func TestDefaultPath_Env(t *testing.T) {
	t.Setenv("MATHVERIFY_CONFIG", "/etc/mathverify.yaml")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/mathverify.yaml", p)
}
