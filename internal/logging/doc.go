// Package logging assembles structured slog loggers and formatting helpers used
// across Stagehand.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so sequencer and stage code can
// tag log lines with run identifiers, stage names, and step indexes. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Operator diagnostics flow through these loggers; the user-facing process
// transcript travels on the output channel instead (see package output).
package logging
