package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/dvcurate/internal/common"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds runtime settings for the CLI.
type Config struct {
	ServiceURL    string
	APIKey        string
	DatasetPID    string
	DataDirectory string
	ManifestPath  string

	Retries         int
	RetryDelay      time.Duration
	RequestTimeout  time.Duration
	TransferTimeout time.Duration

	LogLevel  string
	LogFormat string

	JournalDSN      string
	MetricsTextfile string

	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Retries = common.DefaultRetries
	c.RetryDelay = 0
	c.RequestTimeout = 60 * time.Second
	c.TransferTimeout = 30 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.JournalDSN = "dvcurate.db"
	c.S3Region = "us-east-1"
}

// Load builds a Config from defaults, the JSON file at jsonPath (if any) and
// the environment, including envFile when it exists.
func Load(jsonPath, envFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if jsonPath != "" {
		if err := LoadJSON(cfg, jsonPath); err != nil {
			return nil, err
		}
	}
	if err := LoadEnv(cfg, envFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if c.Retries < 1 {
		return fmt.Errorf("%w: retries must be at least 1, got %d", ErrInvalidConfig, c.Retries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 || c.TransferTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.ServiceURL != "" {
		u, err := url.Parse(c.ServiceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: service url %q is not an http(s) URL", ErrInvalidConfig, c.ServiceURL)
		}
	}
	return nil
}

// ValidateUpload checks the settings an upload run cannot do without.
func (c *Config) ValidateUpload() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch {
	case c.ServiceURL == "":
		return fmt.Errorf("%w: service url is required", ErrInvalidConfig)
	case c.APIKey == "":
		return fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	case c.DatasetPID == "":
		return fmt.Errorf("%w: dataset persistent identifier is required", ErrInvalidConfig)
	case c.ManifestPath == "":
		return fmt.Errorf("%w: manifest is required", ErrInvalidConfig)
	}
	return nil
}
