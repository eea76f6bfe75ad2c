// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for darkchat.
//
// Supports TOML, JSON and YAML configuration files, with sensible defaults,
// .env and environment variable overrides, and validation.
//
// Configuration file locations (first found wins):
//   - ~/.darkchat/config.toml
//   - ~/.darkchat/config.json
//   - ~/.darkchat/config.yaml
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ashzansoc/darkchat-fusion/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DARKCHAT_"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete darkchat configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// Remote chat API
	API APIConfig `toml:"api" json:"api" yaml:"api"`

	// Chat session behavior
	Session SessionConfig `toml:"session" json:"session" yaml:"session"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`

	// Logging
	Log LogConfig `toml:"log" json:"log" yaml:"log"`

	// Prometheus endpoint
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
}

// APIConfig locates the remote chat API.
type APIConfig struct {
	// Origin is the address the client is considered served from. A local
	// origin selects development endpoints; anything else selects proxied
	// paths resolved against the origin.
	Origin string `toml:"origin" json:"origin" yaml:"origin"`
	// DevBaseURL is the backend address used for local origins.
	DevBaseURL string `toml:"dev_base_url" json:"dev_base_url" yaml:"dev_base_url"`
	// ChatURL, HealthURL and FallbackURL override the resolved endpoints.
	// Relative paths are resolved against the selected base.
	ChatURL     string `toml:"chat_url" json:"chat_url,omitempty" yaml:"chat_url,omitempty"`
	HealthURL   string `toml:"health_url" json:"health_url,omitempty" yaml:"health_url,omitempty"`
	FallbackURL string `toml:"fallback_url" json:"fallback_url,omitempty" yaml:"fallback_url,omitempty"`
	// TimeoutSecs bounds each request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
}

// SessionConfig contains chat session settings.
type SessionConfig struct {
	// SettleDelayMs is the pause between leaving the welcome view and
	// sending the first message.
	SettleDelayMs int `toml:"settle_delay_ms" json:"settle_delay_ms" yaml:"settle_delay_ms"`
	// Suggestions are the prompt chips offered on the welcome view.
	Suggestions []Suggestion `toml:"suggestions" json:"suggestions" yaml:"suggestions"`
}

// Suggestion is a two-line prompt chip. Selecting it sends
// Title + " " + Subtitle.
type Suggestion struct {
	Title    string `toml:"title" json:"title" yaml:"title"`
	Subtitle string `toml:"subtitle" json:"subtitle" yaml:"subtitle"`
}

// Prompt returns the text sent when the chip is selected.
func (s Suggestion) Prompt() string {
	return strings.TrimSpace(s.Title + " " + s.Subtitle)
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Title is shown in the header.
	Title string `toml:"title" json:"title" yaml:"title"`
	// Subtitle is shown beneath the title.
	Subtitle string `toml:"subtitle" json:"subtitle" yaml:"subtitle"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme" yaml:"theme"`
	// ShowCitations renders the Sources list under assistant turns.
	ShowCitations bool `toml:"show_citations" json:"show_citations" yaml:"show_citations"`
	// Markdown renders assistant turns with glamour.
	Markdown bool `toml:"markdown" json:"markdown" yaml:"markdown"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is a zerolog level name.
	Level string `toml:"level" json:"level" yaml:"level"`
	// File receives log output. Empty means the per-command default.
	File string `toml:"file" json:"file,omitempty" yaml:"file,omitempty"`
}

// MetricsConfig contains the optional Prometheus listener.
type MetricsConfig struct {
	// Addr is a host:port to serve /metrics on. Empty disables it.
	Addr string `toml:"addr" json:"addr,omitempty" yaml:"addr,omitempty"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultSuggestions are the welcome chips shipped with darkchat.
func DefaultSuggestions() []Suggestion {
	return []Suggestion{
		{Title: "What are the advantages", Subtitle: "of using Next.js?"},
		{Title: "Write code to", Subtitle: "demonstrate dijkstra's algorithm"},
		{Title: "Help me write an essay", Subtitle: "about silicon valley"},
		{Title: "What is the weather", Subtitle: "in San Francisco?"},
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			Origin:      "http://localhost",
			DevBaseURL:  "http://localhost:8000",
			TimeoutSecs: 60,
		},
		Session: SessionConfig{
			SettleDelayMs: 300,
			Suggestions:   DefaultSuggestions(),
		},
		UI: UIConfig{
			Title:         "darkchat",
			Subtitle:      "Chat model • Private",
			Theme:         "auto",
			ShowCitations: true,
			Markdown:      true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// SettleDelay returns the welcome transition delay.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Session.SettleDelayMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the darkchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".darkchat"), nil
}

// DefaultPath returns the path of the TOML config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogFile returns the log path used when the TUI owns the terminal.
func DefaultLogFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "darkchat.log"), nil
}

// candidatePaths lists config files in lookup order.
func candidatePaths() []string {
	dir, err := ConfigDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
	}
}

// FindConfigFile returns the first existing config file, or "".
func FindConfigFile() string {
	for _, p := range candidatePaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load builds the effective configuration. When path is empty the default
// locations are searched, and a missing file means built-in defaults.
// Environment overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}

	cfg := Default()
	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped. With no arguments ".env" in the working directory is
// tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

// decodeFile decodes path into cfg, choosing the format by extension.
// Fields absent from the file keep their current values.
func decodeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	switch Format(path) {
	case FormatJSON:
		err = json.Unmarshal(data, cfg)
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to decode config file %s", path)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// File formats understood by Load and Save.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Format returns the config format implied by a file extension.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Marshal encodes the configuration in the given format.
func (c *Config) Marshal(format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode config")
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(c)
		return data, errors.Wrap(err, "failed to encode config")
	case FormatTOML, "":
		var buf bytes.Buffer
		buf.WriteString("# darkchat configuration file\n\n")
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, errors.Wrap(err, "failed to encode config")
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Errorf("unknown config format %q", format)
	}
}

// Save writes the configuration to path atomically, in the format implied
// by its extension.
func Save(cfg *Config, path string) error {
	data, err := cfg.Marshal(Format(path))
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.Origin != "" {
		if err := validateAbsURL(c.API.Origin); err != nil {
			errs = append(errs, ValidationError{Field: "api.origin", Message: err.Error()})
		}
	}
	if err := validateAbsURL(c.API.DevBaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "api.dev_base_url", Message: err.Error()})
	}
	for field, value := range map[string]string{
		"api.chat_url":     c.API.ChatURL,
		"api.health_url":   c.API.HealthURL,
		"api.fallback_url": c.API.FallbackURL,
	} {
		if value == "" || strings.HasPrefix(value, "/") {
			continue
		}
		if err := validateAbsURL(value); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
		}
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.API.TimeoutSecs),
		})
	}

	if c.Session.SettleDelayMs < 0 || c.Session.SettleDelayMs > 5000 {
		errs = append(errs, ValidationError{
			Field:   "session.settle_delay_ms",
			Message: fmt.Sprintf("must be between 0 and 5000, got %d", c.Session.SettleDelayMs),
		})
	}
	for i, s := range c.Session.Suggestions {
		if strings.TrimSpace(s.Prompt()) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("session.suggestions[%d]", i),
				Message: "title and subtitle are both empty",
			})
		}
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateAbsURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL '%s' has no host", raw)
	}
	return nil
}

// SetDefaults fills zero values that a partial config file may leave.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.API.DevBaseURL == "" {
		c.API.DevBaseURL = defaults.API.DevBaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.Session.Suggestions == nil {
		c.Session.Suggestions = defaults.Session.Suggestions
	}
	if c.UI.Title == "" {
		c.UI.Title = defaults.UI.Title
	}
	if c.UI.Subtitle == "" {
		c.UI.Subtitle = defaults.UI.Subtitle
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DARKCHAT_* environment variables:
//   - DARKCHAT_ORIGIN: overrides api.origin
//   - DARKCHAT_DEV_BASE_URL: overrides api.dev_base_url
//   - DARKCHAT_CHAT_URL, DARKCHAT_HEALTH_URL, DARKCHAT_FALLBACK_URL
//   - DARKCHAT_TIMEOUT_SECS: overrides api.timeout_secs
//   - DARKCHAT_SETTLE_DELAY_MS: overrides session.settle_delay_ms
//   - DARKCHAT_THEME: overrides ui.theme
//   - DARKCHAT_LOG_LEVEL, DARKCHAT_LOG_FILE
//   - DARKCHAT_METRICS_ADDR: overrides metrics.addr
//
// Unparseable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("ORIGIN", &c.API.Origin)
	setString("DEV_BASE_URL", &c.API.DevBaseURL)
	setString("CHAT_URL", &c.API.ChatURL)
	setString("HEALTH_URL", &c.API.HealthURL)
	setString("FALLBACK_URL", &c.API.FallbackURL)
	setInt("TIMEOUT_SECS", &c.API.TimeoutSecs)
	setInt("SETTLE_DELAY_MS", &c.Session.SettleDelayMs)
	setString("THEME", &c.UI.Theme)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FILE", &c.Log.File)
	setString("METRICS_ADDR", &c.Metrics.Addr)
}

// =============================================================================
// COPY / DEBUG
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Session.Suggestions != nil {
		clone.Session.Suggestions = make([]Suggestion, len(c.Session.Suggestions))
		copy(clone.Session.Suggestions, c.Session.Suggestions)
	}
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
