// Package main hosts the captionary CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: transcribe submits media and follows the progress
// stream, pick exposes the native file dialog, status runs readiness checks, and
// config scaffolds, shows and validates the TOML configuration.
package main
