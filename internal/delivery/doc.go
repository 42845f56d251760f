// Package delivery persists finished subtitle artifacts.
//
// Two sinks exist: NativeSink hands the artifact to a host save dialog through
// a Bridge (DialogBridge drives a zenity-compatible executable), and
// DownloadSink writes into a downloads directory. Select picks the native sink
// only when the bridge reports itself available; there is no fallback chain
// once a sink has been chosen.
package delivery
