package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sessionkit/internal/project/search"
	"github.com/dshills/sessionkit/internal/session"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, session.DefaultOptions(), cfg.SessionOptions())

	want := search.DefaultOptions()
	got := cfg.SearchOptions()
	assert.Equal(t, want.MaxDepth, got.MaxDepth)
	assert.Equal(t, want.MaxResults, got.MaxResults)
	assert.Equal(t, want.RecentBoost, got.RecentBoost)
	assert.Equal(t, want.OpenCountWeight, got.OpenCountWeight)
	assert.Equal(t, want.Debounce, got.Debounce)
	assert.Equal(t, want.SkipDirs, got.SkipDirs)
	assert.True(t, cfg.Watch.Enabled)
	assert.Empty(t, cfg.Persist.DBPath)
}

func TestDecode_TOML(t *testing.T) {
	cfg := Default()
	err := Decode("sessionkit.toml", []byte(`
[session]
auto_save = true
recent_limit = 5
save_as_refresh_delay = "1s"

[search]
max_results = 20
debounce = "150ms"
skip_globs = ["*.min.js"]

[logging]
level = "debug"
format = "json"

[persist]
db_path = "/tmp/s.db"
`), &cfg)
	require.NoError(t, err)

	assert.True(t, cfg.Session.AutoSave)
	assert.Equal(t, 5, cfg.Session.RecentLimit)
	assert.Equal(t, time.Second, cfg.Session.SaveAsRefreshDelay.Std())
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, 150*time.Millisecond, cfg.Search.Debounce.Std())
	assert.Equal(t, []string{"*.min.js"}, cfg.Search.SkipGlobs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/s.db", cfg.Persist.DBPath)

	// untouched keys keep their defaults
	assert.Equal(t, search.DefaultMaxDepth, cfg.Search.MaxDepth)
	assert.Equal(t, Default().Session.SaveHistorySize, cfg.Session.SaveHistorySize)
}

func TestDecode_YAML(t *testing.T) {
	cfg := Default()
	err := Decode("sessionkit.yml", []byte(`
session:
  recent_limit: 3
search:
  max_depth: 2
  debounce: 50ms
watch:
  enabled: false
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Session.RecentLimit)
	assert.Equal(t, 2, cfg.Search.MaxDepth)
	assert.Equal(t, 50*time.Millisecond, cfg.Search.Debounce.Std())
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, search.DefaultMaxResults, cfg.Search.MaxResults)
}

func TestDecode_EmptyYAML(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode("empty.yaml", []byte("\n"), &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		data   string
	}{
		{"toml syntax", "c.toml", "[session\nrecent_limit = 1"},
		{"toml unknown key", "c.toml", "[session]\nbogus = 1"},
		{"toml bad duration", "c.toml", "[search]\ndebounce = \"soon\""},
		{"yaml unknown key", "c.yaml", "session:\n  bogus: 1"},
		{"yaml type mismatch", "c.yaml", "session:\n  recent_limit: many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode(tt.source, []byte(tt.data), &cfg)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.source, pe.Path)
		})
	}
}

func TestDecode_TOMLPosition(t *testing.T) {
	cfg := Default()
	err := Decode("c.toml", []byte("[session]\nrecent_limit = = 1\n"), &cfg)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, pe.Error(), "line 2")
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	cfg := Default()
	err := Decode("c.json", []byte("{}"), &cfg)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Search.MaxResults, cfg.Search.MaxResults)
	})

	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().Session.RecentLimit, cfg.Session.RecentLimit)
	})

	t.Run("file then env", func(t *testing.T) {
		path := writeFile(t, "sessionkit.toml", "[session]\nrecent_limit = 4\n[search]\nmax_results = 7\n")
		t.Setenv("SESSIONKIT_SEARCH_MAX_RESULTS", "9")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Session.RecentLimit)
		assert.Equal(t, 9, cfg.Search.MaxResults)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := writeFile(t, "sessionkit.yaml", "search:\n  max_depth: 0\n")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("parse errors surface", func(t *testing.T) {
		path := writeFile(t, "sessionkit.toml", "[search\n")
		_, err := Load(path)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SESSIONKIT_AUTO_SAVE":             "yes",
		"SESSIONKIT_MAX_FILE_SIZE":         "2048",
		"SESSIONKIT_SAVE_AS_REFRESH_DELAY": "0s",
		"SESSIONKIT_SEARCH_SKIP_DIRS":      "vendor, dist ,",
		"SESSIONKIT_LOG_LEVEL":             "warn",
		"SESSIONKIT_DB_PATH":               "/var/lib/sk.db",
		"SESSIONKIT_WATCH":                 "off",
		"UNRELATED":                        "1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))

	assert.True(t, cfg.Session.AutoSave)
	assert.Equal(t, int64(2048), cfg.Session.MaxFileSize)
	assert.Zero(t, cfg.Session.SaveAsRefreshDelay)
	assert.Equal(t, []string{"vendor", "dist"}, cfg.Search.SkipDirs)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/var/lib/sk.db", cfg.Persist.DBPath)
	assert.False(t, cfg.Watch.Enabled)
}

func TestApplyEnv_Invalid(t *testing.T) {
	env := map[string]string{
		"SESSIONKIT_RECENT_LIMIT":    "ten",
		"SESSIONKIT_SEARCH_DEBOUNCE": "later",
		"SESSIONKIT_LOG_LEVEL":       "debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	err := ApplyEnv(&cfg, lookup)
	require.ErrorIs(t, err, ErrInvalidEnv)
	assert.Contains(t, err.Error(), "SESSIONKIT_RECENT_LIMIT")
	assert.Contains(t, err.Error(), "SESSIONKIT_SEARCH_DEBOUNCE")
	assert.NotContains(t, err.Error(), "SESSIONKIT_LOG_LEVEL")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnv_None(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, noEnv))
	assert.Equal(t, Default(), cfg)
}

func TestEnvVars(t *testing.T) {
	vars := EnvVars()
	assert.Contains(t, vars, "SESSIONKIT_LOG_LEVEL")
	assert.Contains(t, vars, "SESSIONKIT_SEARCH_SKIP_GLOBS")
	assert.IsNonDecreasing(t, vars)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"recent limit", func(c *Config) { c.Session.RecentLimit = 0 }, "session.recent_limit"},
		{"history size", func(c *Config) { c.Session.SaveHistorySize = -1 }, "session.save_history_size"},
		{"refresh delay", func(c *Config) { c.Session.SaveAsRefreshDelay = -1 }, "session.save_as_refresh_delay"},
		{"max file size", func(c *Config) { c.Session.MaxFileSize = -1 }, "session.max_file_size"},
		{"max depth", func(c *Config) { c.Search.MaxDepth = 0 }, "search.max_depth"},
		{"max results", func(c *Config) { c.Search.MaxResults = 0 }, "search.max_results"},
		{"recent boost", func(c *Config) { c.Search.RecentBoost = -5 }, "search.recent_boost"},
		{"debounce", func(c *Config) { c.Search.Debounce = Duration(-time.Second) }, "search.debounce"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrValidationFailed)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.path, ve.Path)
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Session.RecentLimit = 0
	cfg.Search.MaxResults = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.recent_limit")
	assert.Contains(t, err.Error(), "search.max_results")
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 2m ")))
	assert.Equal(t, 2*time.Minute, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2m0s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("nope")))
}

func TestSearchOptions_CopiesSlices(t *testing.T) {
	cfg := Default()
	cfg.Search.SkipGlobs = []string{"*.log"}

	opts := cfg.SearchOptions()
	opts.SkipGlobs[0] = "changed"
	opts.SkipDirs[0] = "changed"

	assert.Equal(t, "*.log", cfg.Search.SkipGlobs[0])
	assert.NotEqual(t, "changed", cfg.Search.SkipDirs[0])
}
