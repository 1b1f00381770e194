// Package config loads the govwatch config file and wires up logging.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/govwatch/govwatch"
)

// DefaultPath is where commands look for the config file unless told
// otherwise.
const DefaultPath = "govwatch.yaml"

// FetcherConfig selects and tunes the page fetcher.
type FetcherConfig struct {
	// Kind is "http" (default) or "colly".
	Kind string `yaml:"kind"`
	// Timeout is a Go duration string like "60s".
	Timeout     string `yaml:"timeout"`
	InsecureTLS bool   `yaml:"insecure_tls"`
}

// TimeoutDuration parses the timeout, falling back to the fetch default on
// an empty or malformed value.
func (f FetcherConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return govwatch.DefaultFetchTimeout
	}
	return d
}

// NotifyConfig selects the notification channel.
type NotifyConfig struct {
	// Kind is "ntfy" (default), "telegram", or "none".
	Kind           string `yaml:"kind"`
	NtfyBaseURL    string `yaml:"ntfy_base_url"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

// LoggingConfig tunes logrus output.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
}

// Config is the structure of govwatch.yaml.
type Config struct {
	StatePath        string          `yaml:"state_path"`
	ArchivePath      string          `yaml:"archive_path"`
	StatusDB         string          `yaml:"status_db"`
	Schedule         string          `yaml:"schedule"`
	DisableThreshold int             `yaml:"disable_threshold"`
	Fetcher          FetcherConfig   `yaml:"fetcher"`
	Notify           NotifyConfig    `yaml:"notify"`
	Logging          LoggingConfig   `yaml:"logging"`
	Sites            []govwatch.Site `yaml:"sites"`
}

// Default returns the configuration used when a field (or the whole file)
// is absent.
func Default() *Config {
	return &Config{
		StatePath:        "state.json",
		ArchivePath:      "history.md",
		StatusDB:         "status.db",
		Schedule:         "@every 30m",
		DisableThreshold: govwatch.DefaultDisableThreshold,
		Fetcher: FetcherConfig{
			Kind:    "http",
			Timeout: "60s",
		},
		Notify: NotifyConfig{
			Kind:        "ntfy",
			NtfyBaseURL: govwatch.DefaultNtfyBaseURL,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path. A missing file yields the defaults
// (with no sites) rather than an error; a present but unparseable file is
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults backfills fields the YAML left zero.
func (c *Config) applyDefaults() {
	d := Default()
	if c.StatePath == "" {
		c.StatePath = d.StatePath
	}
	if c.ArchivePath == "" {
		c.ArchivePath = d.ArchivePath
	}
	if c.StatusDB == "" {
		c.StatusDB = d.StatusDB
	}
	if c.Schedule == "" {
		c.Schedule = d.Schedule
	}
	if c.DisableThreshold == 0 {
		c.DisableThreshold = d.DisableThreshold
	}
	if c.Fetcher.Kind == "" {
		c.Fetcher.Kind = d.Fetcher.Kind
	}
	if c.Fetcher.Timeout == "" {
		c.Fetcher.Timeout = d.Fetcher.Timeout
	}
	if c.Notify.Kind == "" {
		c.Notify.Kind = d.Notify.Kind
	}
	if c.Notify.NtfyBaseURL == "" {
		c.Notify.NtfyBaseURL = d.Notify.NtfyBaseURL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	for i := range c.Sites {
		c.Sites[i].ApplyDefaults()
	}
}
