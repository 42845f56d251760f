package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"captionary/internal/fileutil"
	"captionary/internal/logging"
	"captionary/internal/textutil"
)

// DownloadSink writes artifacts into a downloads directory, numbering
// repeated names like a browser does.
type DownloadSink struct {
	dir      string
	fallback string
	logger   *slog.Logger
}

// NewDownloadSink creates a sink rooted at dir. fallback is used when the
// suggested filename sanitises to nothing.
func NewDownloadSink(dir, fallback string, logger *slog.Logger) *DownloadSink {
	return &DownloadSink{
		dir:      dir,
		fallback: fallback,
		logger:   logging.NewComponentLogger(logger, "download"),
	}
}

func (s *DownloadSink) Name() string { return "download" }

// Dir returns the target directory.
func (s *DownloadSink) Dir() string { return s.dir }

func (s *DownloadSink) Deliver(ctx context.Context, content []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := textutil.SanitizeFileName(filename)
	if name == "" {
		name = s.fallback
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	target, err := fileutil.WriteFileUnique(s.dir, name, content, 0o644)
	if err != nil {
		return "", err
	}
	s.logger.Info("artifact downloaded",
		logging.String("path", target),
		logging.Int("bytes", len(content)),
	)
	return target, nil
}
