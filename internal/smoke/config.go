// Package smoke checks the HTTP contract of a running csvpage server.
package smoke

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"time"

	"github.com/okian/csvpage/pkg/logger"
)

// Default configuration constants.
const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultRounds  = 20
	DefaultTimeout = 10 * time.Second
)

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid smoke config")

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Rounds     int           // Number of check rounds
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	ReportFile string        // JSON report path, empty for none
	Verbose    bool          // Log every check result
	Logger     logger.Logger // Defaults to a no-op logger
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Rounds:  DefaultRounds,
		Workers: runtime.NumCPU(),
		Timeout: DefaultTimeout,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q is not absolute", ErrInvalidConfig, c.BaseURL)
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("%w: rounds must be positive", ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) log() logger.Logger {
	if c.Logger == nil {
		return logger.Nop()
	}
	return c.Logger
}
