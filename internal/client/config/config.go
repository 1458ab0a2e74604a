package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings for the flixkeeper CLI.
//
// Fields:
//   - APIBaseURL: root of the movie-catalog service.
//   - DatabasePath: SQLite file holding the Session.
//   - RequestTimeout: per-request limit enforced by the HTTP transport; zero disables it.
//   - CatalogRefreshInterval: how often the movie list is refetched while logged in; zero disables it.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL             string
	DatabasePath           string
	RequestTimeout         time.Duration
	CatalogRefreshInterval time.Duration
	LogLevel               string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://tonys-flix-9de78e076f9d.herokuapp.com/"
	c.DatabasePath = "flixkeeper.db"
	c.RequestTimeout = 15 * time.Second
	c.CatalogRefreshInterval = 5 * time.Minute
	c.LogLevel = "warn"
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.APIBaseURL)
	}
	if c.DatabasePath == "" {
		return errors.New("database path is required")
	}
	if c.RequestTimeout < 0 || c.CatalogRefreshInterval < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// LoadConfig constructs a Config from args (without the program name):
// defaults first, then the JSON file named by -c/-config, then flags.
// Later sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
