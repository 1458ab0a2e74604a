package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/flixkeeper/internal/flagx"
	"github.com/dmitrijs2005/flixkeeper/internal/timex"
)

// JsonConfig is the on-disk shape. Missing keys leave the current value
// untouched, hence the pointers.
type JsonConfig struct {
	APIBaseURL             *string         `json:"api_base_url"`
	DatabasePath           *string         `json:"database_path"`
	RequestTimeout         *timex.Duration `json:"request_timeout"`
	CatalogRefreshInterval *timex.Duration `json:"catalog_refresh_interval"`
	LogLevel               *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c or -config. Without
// either flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != nil {
		cfg.APIBaseURL = *jc.APIBaseURL
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.CatalogRefreshInterval != nil {
		cfg.CatalogRefreshInterval = jc.CatalogRefreshInterval.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
