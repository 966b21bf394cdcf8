// Package logging builds the structured zap loggers used across the session
// engine.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`
	// Format is json, console or auto. Auto picks console when stderr is a
	// terminal.
	Format string `toml:"format" yaml:"format"`
	// OutputPath is stderr, stdout or a file path. Defaults to stderr.
	OutputPath string `toml:"output" yaml:"output"`
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     FormatAuto,
		OutputPath: "stderr",
	}
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if resolveFormat(cfg.Format, cfg.OutputPath) == FormatConsole {
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}

	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	output := cfg.OutputPath
	if output == "" {
		output = "stderr"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Component returns l named for a component, or a no-op logger when l is nil.
func Component(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(name)
}

func resolveFormat(format, output string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return FormatJSON
	case FormatConsole:
		return FormatConsole
	}
	if output != "" && output != "stderr" {
		return FormatJSON
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return FormatConsole
	}
	return FormatJSON
}
