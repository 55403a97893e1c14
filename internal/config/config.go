// Package config loads mathverify's YAML configuration and applies
// environment overrides on top of it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathverify/internal/llm"
	"github.com/abhisek/mathverify/internal/mastery"
	"github.com/abhisek/mathverify/internal/normalize"
	"github.com/abhisek/mathverify/internal/numeric"
	"github.com/abhisek/mathverify/internal/oracle"
	"github.com/abhisek/mathverify/internal/partialcredit"
	"github.com/abhisek/mathverify/internal/store"
)

// Config holds all mathverify configuration.
type Config struct {
	Oracle        OracleConfig        `yaml:"oracle"`
	Numeric       numeric.Config      `yaml:"numeric"`
	Normalize     normalize.Defaults  `yaml:"normalize"`
	Mastery       MasteryConfig       `yaml:"mastery"`
	Store         StoreConfig         `yaml:"store"`
	LLM           llm.Config          `yaml:"llm"`
	PartialCredit PartialCreditConfig `yaml:"partial_credit"`
	Log           LogConfig           `yaml:"log"`
}

// OracleConfig configures the symbolic verification service.
type OracleConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Batch enables the batch endpoint when the service is new enough.
	Batch           bool   `yaml:"batch"`
	MinBatchVersion string `yaml:"min_batch_version"`
}

// MasteryConfig configures the once-per-day schedule gate.
type MasteryConfig struct {
	// Timezone is the IANA zone whose calendar day bounds an update.
	Timezone     string `yaml:"timezone"`
	EventQuality int    `yaml:"event_quality"`
}

// StoreConfig selects the database.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite or a connection URL for postgres.
	// Empty means the default sqlite path.
	DSN string `yaml:"dsn"`
}

// PartialCreditConfig toggles LLM partial credit for wrong items.
type PartialCreditConfig struct {
	Enabled              bool `yaml:"enabled"`
	partialcredit.Config `yaml:",inline"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Oracle: OracleConfig{
			BaseURL:         "http://127.0.0.1:8765",
			Timeout:         5 * time.Second,
			Batch:           true,
			MinBatchVersion: oracle.DefaultMinBatchVersion,
		},
		Numeric:   numeric.DefaultConfig(),
		Normalize: normalize.DefaultDefaults(),
		Mastery: MasteryConfig{
			Timezone:     "UTC",
			EventQuality: mastery.EventQuality,
		},
		Store: StoreConfig{Driver: store.DriverSQLite},
		LLM:   llm.DefaultConfig(),
		PartialCredit: PartialCreditConfig{
			Config: partialcredit.DefaultConfig(),
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// DefaultPath returns the config file path: $MATHVERIFY_CONFIG if set,
// else $XDG_CONFIG_HOME/mathverify/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv("MATHVERIFY_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "mathverify", "config.yaml"), nil
}

// Load reads configuration from path. A missing file yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies MATHVERIFY_* environment variables. With
// partial credit on and no API key configured, the vendors' standard key
// variables are probed as a last resort.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MATHVERIFY_ORACLE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := os.Getenv("MATHVERIFY_DB"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("MATHVERIFY_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("MATHVERIFY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MATHVERIFY_TIMEZONE"); v != "" {
		c.Mastery.Timezone = v
	}
	if v := os.Getenv("MATHVERIFY_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}

	keys := map[string]*string{
		"anthropic":  &c.LLM.Anthropic.APIKey,
		"openai":     &c.LLM.OpenAI.APIKey,
		"gemini":     &c.LLM.Gemini.APIKey,
		"openrouter": &c.LLM.OpenRouter.APIKey,
	}
	for name, dst := range keys {
		if v := os.Getenv("MATHVERIFY_" + strings.ToUpper(name) + "_API_KEY"); v != "" {
			*dst = v
		}
	}

	if c.PartialCredit.Enabled && c.LLM.Validate() != nil {
		if found, ok := llm.DiscoverConfig(); ok {
			found.Timeout = c.LLM.Timeout
			found.Retry = c.LLM.Retry
			c.LLM = found
		}
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	if c.Oracle.Timeout < 0 {
		return fmt.Errorf("oracle.timeout must not be negative")
	}
	if v := c.Oracle.MinBatchVersion; v != "" && !semver.IsValid(canonicalVersion(v)) {
		return fmt.Errorf("oracle.min_batch_version %q is not a semantic version", v)
	}
	if c.Numeric.DomainMin >= c.Numeric.DomainMax {
		return fmt.Errorf("numeric domain [%g, %g] is empty", c.Numeric.DomainMin, c.Numeric.DomainMax)
	}
	if c.Normalize.DomainMin >= c.Normalize.DomainMax {
		return fmt.Errorf("normalize domain [%g, %g] is empty", c.Normalize.DomainMin, c.Normalize.DomainMax)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if q := c.Mastery.EventQuality; q < mastery.MinQuality || q > mastery.MaxQuality {
		return fmt.Errorf("mastery.event_quality %d out of range [%d, %d]", q, mastery.MinQuality, mastery.MaxQuality)
	}
	switch c.Store.Driver {
	case store.DriverSQLite, "":
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.PartialCredit.Enabled {
		if err := c.LLM.Validate(); err != nil {
			return fmt.Errorf("partial credit: %w", err)
		}
	}
	return nil
}

// Location resolves the mastery timezone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Mastery.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Mastery.Timezone)
	if err != nil {
		return nil, fmt.Errorf("mastery.timezone: %w", err)
	}
	return loc, nil
}

// StoreDSN returns the configured DSN, or the default sqlite path with its
// directory created.
func (c *Config) StoreDSN() (string, error) {
	if c.Store.DSN != "" {
		if c.Store.Driver == store.DriverSQLite || c.Store.Driver == "" {
			if err := store.EnsureDir(c.Store.DSN); err != nil {
				return "", err
			}
		}
		return c.Store.DSN, nil
	}
	return store.DefaultDBPath()
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
