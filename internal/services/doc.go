// Package services defines shared utilities consumed by the transcription
// session, the stream decoder, and the delivery sinks.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, session stages, and
//     the source media name for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation, transport, protocol, producer, delivery) and render them
//     as the single status line shown to the user.
//
// Use these helpers when wiring new session logic so error reporting and
// observability stay uniform across the client.
package services
