// Package logging assembles structured slog loggers and formatting helpers used
// across tv-shows commands.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers that enforce consistent warning and error
// fields. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
package logging
