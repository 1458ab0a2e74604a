package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "https://tonys-flix-9de78e076f9d.herokuapp.com/", c.APIBaseURL)
	assert.Equal(t, "flixkeeper.db", c.DatabasePath)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, 5*time.Minute, c.CatalogRefreshInterval)
	assert.Equal(t, "warn", c.LogLevel)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_NoArgsGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"api_base_url":  "http://json.example/",
		"database_path": "json.db",
		"log_level":     "info",
	})

	cfg, err := LoadConfig([]string{"-c", path, "-a", "http://flag.example/", "-t", "3"})
	require.NoError(t, err)

	want := defaults()
	want.APIBaseURL = "http://flag.example/"
	want.DatabasePath = "json.db"
	want.LogLevel = "info"
	want.RequestTimeout = 3 * time.Second
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig([]string{"-a", "ftp://example.com"})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-t", "-5"})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-c", "/does/not/exist.json"})
	require.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://127.0.0.1:9090/", "-d", "x.db", "-t", "10", "-r", "0", "-l", "debug"},
			want: func(c *Config) {
				c.APIBaseURL = "http://127.0.0.1:9090/"
				c.DatabasePath = "x.db"
				c.RequestTimeout = 10 * time.Second
				c.CatalogRefreshInterval = 0
				c.LogLevel = "debug"
			},
		},
		{
			name: "unknown flags ignored",
			args: []string{"-x", "1", "-d", "y.db"},
			want: func(c *Config) { c.DatabasePath = "y.db" },
		},
		{name: "bad timeout", args: []string{"-t", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			want := defaults()
			tt.want(want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}
