// Package transcribe drives one transcription session end to end.
//
// A Dispatcher validates a Submission, posts it as a multipart form, feeds
// the streaming response through a stream.Decoder and applies each event to
// a Session (Idle, Submitting, Streaming, Delivering, Done or Failed). Every
// change is reported to a Reporter. On the complete event the artifact is
// fetched and handed to the delivery sink chosen for the host.
package transcribe
