package delivery

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"captionary/internal/textutil"
)

// DownloadNameParam is the query parameter carrying the suggested filename on
// an artifact URL.
const DownloadNameParam = "download_name"

// ErrSaveCancelled is returned when the user dismisses the native save dialog.
var ErrSaveCancelled = errors.New("save cancelled")

// MediaExtensions lists the file extensions offered by the picker and accepted
// for upload.
var MediaExtensions = []string{".mp3", ".wav", ".m4a", ".mp4", ".mkv", ".mov", ".avi", ".flac", ".ogg", ".webm"}

// Sink receives a finished artifact and persists it somewhere the user can
// reach. Deliver returns the location the artifact ended up at.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, content []byte, filename string) (string, error)
}

// Bridge is the host capability for native file dialogs.
type Bridge interface {
	Available() bool
	PickFile(ctx context.Context) (path string, ok bool, err error)
	SaveFile(ctx context.Context, content []byte, filename string) (path string, err error)
}

// Select returns the native sink when the bridge is available and the
// download sink otherwise. It is evaluated once per delivery.
func Select(bridge Bridge, download *DownloadSink) Sink {
	if bridge != nil && bridge.Available() {
		return &NativeSink{bridge: bridge}
	}
	return download
}

// IsMediaFile reports whether name has one of MediaExtensions.
func IsMediaFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range MediaExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// FilenameFromURL returns the download_name query parameter of an artifact
// URL as a plain file name, or fallback when it is absent or unusable.
func FilenameFromURL(raw, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if name := textutil.SanitizeFileName(u.Query().Get(DownloadNameParam)); name != "" {
		return name
	}
	return fallback
}

// NativeSink hands the artifact to the host save dialog.
type NativeSink struct {
	bridge Bridge
}

// NewNativeSink wraps bridge.
func NewNativeSink(bridge Bridge) *NativeSink {
	return &NativeSink{bridge: bridge}
}

func (s *NativeSink) Name() string { return "native" }

// Deliver asks the bridge to save content. A cancelled dialog is reported as
// ErrSaveCancelled.
func (s *NativeSink) Deliver(ctx context.Context, content []byte, filename string) (string, error) {
	if s == nil || s.bridge == nil {
		return "", errors.New("native bridge unavailable")
	}
	return s.bridge.SaveFile(ctx, content, filename)
}
