package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/flixkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-t", "-r", "-l"}

// parseFlags populates cfg from the flags it owns:
//
//	-a string   base url of the movie-catalog service
//	-d string   path of the local session database
//	-t int      request timeout in seconds
//	-r int      catalog refresh interval in seconds
//	-l string   log level
//
// Other arguments are filtered out with flagx.FilterArgs first.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("flixkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base url of the movie service")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	refresh := fs.Int("r", int(cfg.CatalogRefreshInterval.Seconds()), "catalog refresh interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.CatalogRefreshInterval = time.Duration(*refresh) * time.Second
	return nil
}
