// Package config loads sessionkit settings from a TOML or YAML file and from
// SESSIONKIT_* environment variables.
//
// Precedence, lowest to highest:
//  1. Built-in defaults
//  2. Config file
//  3. Environment variables
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/sessionkit/internal/logging"
	"github.com/dshills/sessionkit/internal/project/search"
	"github.com/dshills/sessionkit/internal/session"
)

// Config is the complete sessionkit configuration.
type Config struct {
	Session SessionConfig  `toml:"session" yaml:"session"`
	Search  SearchConfig   `toml:"search" yaml:"search"`
	Logging logging.Config `toml:"logging" yaml:"logging"`
	Persist PersistConfig  `toml:"persist" yaml:"persist"`
	Watch   WatchConfig    `toml:"watch" yaml:"watch"`
}

// SessionConfig holds controller settings.
type SessionConfig struct {
	// AutoSave saves dirty tabs on close instead of asking.
	AutoSave bool `toml:"auto_save" yaml:"auto_save"`

	// RecentLimit is the number of recent files remembered.
	RecentLimit int `toml:"recent_limit" yaml:"recent_limit"`

	// SaveHistorySize is the number of save records kept.
	SaveHistorySize int `toml:"save_history_size" yaml:"save_history_size"`

	// SaveAsRefreshDelay is the delay before the second listing refresh
	// after save-as.
	SaveAsRefreshDelay Duration `toml:"save_as_refresh_delay" yaml:"save_as_refresh_delay"`

	// MaxFileSize is the largest file the loader will open, in bytes.
	// Zero means unlimited.
	MaxFileSize int64 `toml:"max_file_size" yaml:"max_file_size"`
}

// SearchConfig holds quick-open settings.
type SearchConfig struct {
	MaxDepth        int      `toml:"max_depth" yaml:"max_depth"`
	MaxResults      int      `toml:"max_results" yaml:"max_results"`
	RecentBoost     int      `toml:"recent_boost" yaml:"recent_boost"`
	OpenCountWeight int      `toml:"open_count_weight" yaml:"open_count_weight"`
	Debounce        Duration `toml:"debounce" yaml:"debounce"`

	// SkipDirs are directory names never descended into.
	SkipDirs []string `toml:"skip_dirs" yaml:"skip_dirs"`

	// SkipGlobs are glob patterns matched against names and relative paths.
	SkipGlobs []string `toml:"skip_globs" yaml:"skip_globs"`
}

// PersistConfig locates the session database.
type PersistConfig struct {
	// DBPath is the sqlite database file. Empty disables persistence.
	DBPath string `toml:"db_path" yaml:"db_path"`
}

// WatchConfig controls file system watching.
type WatchConfig struct {
	// Enabled invalidates cached listings when the root changes on disk.
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// Duration is a time.Duration written as a string such as "300ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	so := session.DefaultOptions()
	sr := search.DefaultOptions()
	return Config{
		Session: SessionConfig{
			AutoSave:           so.AutoSave,
			RecentLimit:        so.RecentLimit,
			SaveHistorySize:    so.SaveHistorySize,
			SaveAsRefreshDelay: Duration(so.SaveAsRefreshDelay),
			MaxFileSize:        so.MaxFileSize,
		},
		Search: SearchConfig{
			MaxDepth:        sr.MaxDepth,
			MaxResults:      sr.MaxResults,
			RecentBoost:     sr.RecentBoost,
			OpenCountWeight: sr.OpenCountWeight,
			Debounce:        Duration(sr.Debounce),
			SkipDirs:        sr.SkipDirs,
		},
		Logging: logging.DefaultConfig(),
		Watch:   WatchConfig{Enabled: true},
	}
}

// Validate reports every invalid setting. The returned error matches
// ErrValidationFailed.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, path string, value any, msg string) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Value: value, Message: msg})
		}
	}

	check(c.Session.RecentLimit > 0, "session.recent_limit", c.Session.RecentLimit, "must be positive")
	check(c.Session.SaveHistorySize > 0, "session.save_history_size", c.Session.SaveHistorySize, "must be positive")
	check(c.Session.SaveAsRefreshDelay >= 0, "session.save_as_refresh_delay", c.Session.SaveAsRefreshDelay.Std(), "must not be negative")
	check(c.Session.MaxFileSize >= 0, "session.max_file_size", c.Session.MaxFileSize, "must not be negative")

	check(c.Search.MaxDepth >= 1, "search.max_depth", c.Search.MaxDepth, "must be at least 1")
	check(c.Search.MaxResults > 0, "search.max_results", c.Search.MaxResults, "must be positive")
	check(c.Search.RecentBoost >= 0, "search.recent_boost", c.Search.RecentBoost, "must not be negative")
	check(c.Search.OpenCountWeight >= 0, "search.open_count_weight", c.Search.OpenCountWeight, "must not be negative")
	check(c.Search.Debounce >= 0, "search.debounce", c.Search.Debounce.Std(), "must not be negative")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		check(false, "logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	switch c.Logging.Format {
	case logging.FormatAuto, logging.FormatJSON, logging.FormatConsole:
	default:
		check(false, "logging.format", c.Logging.Format, "must be auto, json or console")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
}

// SessionOptions converts the session section into controller options.
func (c Config) SessionOptions() session.Options {
	return session.Options{
		AutoSave:           c.Session.AutoSave,
		RecentLimit:        c.Session.RecentLimit,
		SaveHistorySize:    c.Session.SaveHistorySize,
		SaveAsRefreshDelay: c.Session.SaveAsRefreshDelay.Std(),
		MaxFileSize:        c.Session.MaxFileSize,
	}
}

// SearchOptions converts the search section into quick-open options.
func (c Config) SearchOptions() search.Options {
	return search.Options{
		MaxDepth:        c.Search.MaxDepth,
		MaxResults:      c.Search.MaxResults,
		RecentBoost:     c.Search.RecentBoost,
		OpenCountWeight: c.Search.OpenCountWeight,
		Debounce:        c.Search.Debounce.Std(),
		SkipDirs:        append([]string(nil), c.Search.SkipDirs...),
		SkipGlobs:       append([]string(nil), c.Search.SkipGlobs...),
	}
}
