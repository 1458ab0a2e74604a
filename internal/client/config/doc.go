// Package config loads runtime configuration for the flixkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base url of the movie-catalog service
//	-d string   path of the local session database
//	-t int      request timeout (seconds)
//	-r int      catalog refresh interval (seconds)
//	-l string   log level: debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so "15s" and integer nanoseconds both work.
// Keys left out keep their default:
//
//	{
//	  "api_base_url": "http://localhost:8080/",
//	  "database_path": "flixkeeper.db",
//	  "request_timeout": "15s",
//	  "catalog_refresh_interval": "5m",
//	  "log_level": "info"
//	}
//
// Environment variables are not read.
package config
