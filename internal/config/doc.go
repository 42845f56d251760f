// Package config loads, normalizes, and validates Captionary configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CAPTIONARY_SERVER_URL. The Config type centralizes every knob the CLI needs:
// the transcription server, submission defaults, delivery targets, and the
// native dialog bridge.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
