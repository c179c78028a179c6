// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation errors wrap ErrInvalidConfig, provider errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
)

// Defaults.
const (
	defaultAddr       = ":5000"
	defaultDataFile   = "data.csv"
	defaultCSRFMaxAge = 3600
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// Testing disables CSRF enforcement and refuses to bind a listener.
	Testing bool `koanf:"testing"`

	// DataFile is the CSV rendered by POST /data, relative to the working directory.
	DataFile string `koanf:"data_file"`

	// TemplateDir overrides the embedded templates when set.
	TemplateDir string `koanf:"template_dir"`

	// CSRFCookieSecure marks the CSRF cookie Secure (HTTPS only).
	CSRFCookieSecure bool `koanf:"csrf_cookie_secure"`

	// CSRFMaxAge is the CSRF cookie lifetime in seconds.
	CSRFMaxAge int `koanf:"csrf_max_age"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "text",
		Addr:       defaultAddr,
		DataFile:   defaultDataFile,
		CSRFMaxAge: defaultCSRFMaxAge,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataFile) == "":
		return fmt.Errorf("%w: data_file must not be empty", ErrInvalidConfig)
	case c.CSRFMaxAge < 0:
		return fmt.Errorf("%w: csrf_max_age must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
