package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SESSIONKIT_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envSetter func(cfg *Config, value string) error

// envMapping maps variable names (without EnvPrefix) to the setting they
// override.
var envMapping = map[string]envSetter{
	"AUTO_SAVE":             boolVar(func(c *Config) *bool { return &c.Session.AutoSave }),
	"RECENT_LIMIT":          intVar(func(c *Config) *int { return &c.Session.RecentLimit }),
	"SAVE_HISTORY_SIZE":     intVar(func(c *Config) *int { return &c.Session.SaveHistorySize }),
	"SAVE_AS_REFRESH_DELAY": durationVar(func(c *Config) *Duration { return &c.Session.SaveAsRefreshDelay }),
	"MAX_FILE_SIZE": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Session.MaxFileSize = n
		return nil
	},

	"SEARCH_MAX_DEPTH":         intVar(func(c *Config) *int { return &c.Search.MaxDepth }),
	"SEARCH_MAX_RESULTS":       intVar(func(c *Config) *int { return &c.Search.MaxResults }),
	"SEARCH_RECENT_BOOST":      intVar(func(c *Config) *int { return &c.Search.RecentBoost }),
	"SEARCH_OPEN_COUNT_WEIGHT": intVar(func(c *Config) *int { return &c.Search.OpenCountWeight }),
	"SEARCH_DEBOUNCE":          durationVar(func(c *Config) *Duration { return &c.Search.Debounce }),
	"SEARCH_SKIP_DIRS":         listVar(func(c *Config) *[]string { return &c.Search.SkipDirs }),
	"SEARCH_SKIP_GLOBS":        listVar(func(c *Config) *[]string { return &c.Search.SkipGlobs }),

	"LOG_LEVEL":  stringVar(func(c *Config) *string { return &c.Logging.Level }),
	"LOG_FORMAT": stringVar(func(c *Config) *string { return &c.Logging.Format }),
	"LOG_OUTPUT": stringVar(func(c *Config) *string { return &c.Logging.OutputPath }),

	"DB_PATH": stringVar(func(c *Config) *string { return &c.Persist.DBPath }),
	"WATCH":   boolVar(func(c *Config) *bool { return &c.Watch.Enabled }),
}

// EnvVars returns the supported environment variable names, sorted.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, EnvPrefix+name)
	}
	sort.Strings(names)
	return names
}

// ApplyEnv overrides cfg with every SESSIONKIT_* variable lookup reports.
// All malformed values are reported together.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	var bad []string
	for _, name := range EnvVars() {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		set := envMapping[strings.TrimPrefix(name, EnvPrefix)]
		if err := set(cfg, strings.TrimSpace(value)); err != nil {
			bad = append(bad, fmt.Sprintf("%s=%q", name, value))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEnv, strings.Join(bad, ", "))
	}
	return nil
}

func stringVar(field func(*Config) *string) envSetter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func intVar(field func(*Config) *int) envSetter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolVar(field func(*Config) *bool) envSetter {
	return func(c *Config, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func durationVar(field func(*Config) *Duration) envSetter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = Duration(d)
		return nil
	}
}

// listVar splits a comma-separated value. An empty value clears the list.
func listVar(field func(*Config) *[]string) envSetter {
	return func(c *Config, v string) error {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*field(c) = out
		return nil
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool %q", s)
}
