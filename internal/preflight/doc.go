// Package preflight provides readiness checks for the transcription server,
// the native dialog helper and the directories captionary writes to.
//
// The CLI "captionary status" command runs RunAll and renders each Result.
// Checks never modify anything; a missing download directory is reported as
// fine when it can be created on first use.
package preflight
