// Package config loads workspace settings from a TOML file. A missing file
// is not an error; the defaults apply.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds workspace settings.
type Config struct {
	// ExtraLanguages extends the built-in recognized language tags.
	ExtraLanguages []string `toml:"extra_languages"`

	// Watch enables re-stamping the solution version when the solution
	// file changes on disk.
	Watch bool `toml:"watch"`

	// DebounceMillis is the coalescing window for solution file events.
	DebounceMillis int `toml:"debounce_millis"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Watch:          true,
		DebounceMillis: 100,
		LogLevel:       "info",
	}
}

// Debounce returns the configured debounce window as a duration.
func (c Config) Debounce() time.Duration {
	if c.DebounceMillis <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// Load reads the config file at path. A missing file returns the defaults;
// unparseable TOML returns a *ParseError.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}

// ParseError reports an unparseable configuration file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
