package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"genrecast/internal/config"
)

const logFileLayout = "01_02_2006_15_04_05"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives human-facing output. Nil means stderr; io.Discard silences it.
	Console io.Writer
	// FilePath, when set, receives every record in append mode.
	FilePath    string
	Development bool
}

// Logger is a slog logger that owns its log file.
type Logger struct {
	*slog.Logger
	file *os.File
	path string
}

// New constructs a logger using the provided options.
func New(opts Options) (*Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	out := &Logger{}
	handlers := []slog.Handler{newHandler(format, console, levelVar, addSource)}

	if path := strings.TrimSpace(opts.FilePath); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		out.file = file
		out.path = path
		handlers = append(handlers, newHandler(format, file, levelVar, addSource))
	}

	out.Logger = slog.New(newFanoutHandler(handlers...))
	return out, nil
}

// NewFromConfig creates the process logger: console output plus a log file
// named after the process start time inside the configured log directory.
// A nil console means stderr.
func NewFromConfig(cfg *config.Config, console io.Writer) (*Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Console: console})
	}
	opts := Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: console,
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		opts.FilePath = filepath.Join(dir, LogFileName(time.Now()))
	}
	return New(opts)
}

// LogFileName returns the per-process log file name for the given start time.
func LogFileName(start time.Time) string {
	return start.Format(logFileLayout) + ".log"
}

// Path returns the log file path, or "" when logging only to the console.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close syncs and closes the log file. It is safe to call more than once.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	return errors.Join(file.Sync(), file.Close())
}

func newHandler(format string, w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	if format == "json" {
		return newJSONHandler(w, lvl, addSource)
	}
	return newConsoleHandler(w, lvl, addSource)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
