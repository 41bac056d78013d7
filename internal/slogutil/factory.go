package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"modplan/internal/config"
)

// LoggerFactory creates loggers for a CLI invocation.
// Level precedence: CLI flags > config file > default (warn).
type LoggerFactory struct {
	config   *config.Config
	stderr   io.Writer
	cliLevel slog.Level
	cliSet   bool
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory writing console output to stderr.
func NewLoggerFactory(cfg *config.Config, stderr io.Writer) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &LoggerFactory{
		config: cfg,
		stderr: stderr,
	}
}

// WithCLILevel records a level chosen by CLI flags; it overrides the config.
func (f *LoggerFactory) WithCLILevel(level slog.Level) *LoggerFactory {
	f.cliLevel = level
	f.cliSet = true
	return f
}

// Logger returns the run logger. When logging.file is configured the console
// logger is teed into that file, which always records at the configured level.
func (f *LoggerFactory) Logger() (*slog.Logger, error) {
	level := f.effectiveLevel()
	console := consoleHandler(f.stderr, level, f.config.Logging.Format)

	if f.config.Logging.File == "" {
		return slog.New(console), nil
	}

	path := f.config.Logging.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.config.RepoRoot, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return slog.New(console), err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(console), err
	}
	f.closers = append(f.closers, file)

	fileLevel := ParseLevel(f.config.Logging.Level)
	fileHandler := NewLineHandler(file, &slog.HandlerOptions{Level: fileLevel})
	return slog.New(Tee(console, fileHandler)), nil
}

func consoleHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return NewLineHandler(w, &slog.HandlerOptions{Level: level})
}

func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliSet {
		return f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return ParseLevel(f.config.Logging.Level)
	}
	return slog.LevelWarn
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
