// Package logging assembles structured slog loggers and formatting helpers used
// across talkpress.
//
// It owns the configurable console/JSON handlers, mirrors every record into
// the JSON log file under the configured log directory, and exposes
// context-aware helpers so stage code automatically tags log lines with the
// video, stage, and run identifier. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
