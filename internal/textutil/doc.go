// Package textutil provides small text helpers shared by the CLI and the
// transcription session: filename sanitization for delivered subtitles,
// UTF-8 safe truncation of server error bodies, and subtitle offset parsing.
package textutil
