// Package logging assembles structured slog loggers and formatting helpers used
// across Captionary.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so session code can tag log
// lines with the submission correlation id, stage, and source file. The
// package also provides a no-op logger for tests and a progress sampler that
// keeps streamed progress from flooding the log.
package logging
