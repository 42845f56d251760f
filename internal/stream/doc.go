// Package stream decodes the newline-delimited JSON progress protocol emitted
// by the transcription server.
//
// A Decoder pulls bytes from a response body, reassembles lines across read
// boundaries and yields typed events (progress, status, complete, error) in
// order. Malformed lines are logged and skipped; a source that ends before a
// complete or error event is reported as an incomplete stream.
package stream
