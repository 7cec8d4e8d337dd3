// Package logging assembles the structured slog logger used across genrecast.
//
// A Logger is created once at process start from configuration. It fans out
// to a console handler and an append-only, timestamp-named log file, and
// must be closed at shutdown so the file is flushed. The package also offers
// typed attribute helpers, component loggers, a no-op logger for tests and
// retention pruning of old log files.
package logging
