package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"captionary/internal/fileutil"
	"captionary/internal/logging"
)

// errDialogDismissed is returned by a command runner when the dialog exits
// with status 1, which zenity-compatible tools use for Cancel.
var errDialogDismissed = errors.New("dialog dismissed")

type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// DialogBridge implements Bridge with a zenity-compatible dialog executable.
type DialogBridge struct {
	command    string
	enabled    bool
	logger     *slog.Logger
	run        commandRunner
	lookPath   func(string) (string, error)
	hasDisplay func() bool
}

// NewDialogBridge constructs a bridge around command. A disabled bridge never
// reports itself as available.
func NewDialogBridge(command string, enabled bool, logger *slog.Logger) *DialogBridge {
	return &DialogBridge{
		command:    strings.TrimSpace(command),
		enabled:    enabled,
		logger:     logging.NewComponentLogger(logger, "dialog"),
		run:        defaultDialogRunner,
		lookPath:   exec.LookPath,
		hasDisplay: graphicalSession,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (b *DialogBridge) WithCommandRunner(r commandRunner) {
	if b != nil && r != nil {
		b.run = r
	}
}

// Available reports whether the dialog command can be shown: the bridge is
// enabled, the executable is on PATH and a graphical session is present.
func (b *DialogBridge) Available() bool {
	if b == nil || !b.enabled || b.command == "" {
		return false
	}
	if _, err := b.lookPath(b.command); err != nil {
		return false
	}
	return b.hasDisplay()
}

// PickFile opens a file chooser filtered to media files. ok is false when the
// user cancels.
func (b *DialogBridge) PickFile(ctx context.Context) (string, bool, error) {
	patterns := make([]string, len(MediaExtensions))
	for i, ext := range MediaExtensions {
		patterns[i] = "*" + ext
	}
	out, err := b.run(ctx, b.command,
		"--file-selection",
		"--title=Select media file",
		"--file-filter=Media files | "+strings.Join(patterns, " "),
		"--file-filter=All files | *",
	)
	if errors.Is(err, errDialogDismissed) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("file dialog: %w", err)
	}
	path := strings.TrimSpace(out)
	if path == "" {
		return "", false, nil
	}
	b.logger.Debug("media file picked", logging.String("path", path))
	return path, true, nil
}

// SaveFile opens a save dialog prefilled with filename and writes content to
// the chosen location.
func (b *DialogBridge) SaveFile(ctx context.Context, content []byte, filename string) (string, error) {
	out, err := b.run(ctx, b.command,
		"--file-selection",
		"--save",
		"--confirm-overwrite",
		"--title=Save subtitles",
		"--filename="+filename,
		"--file-filter=SubRip subtitles | *.srt",
	)
	if errors.Is(err, errDialogDismissed) {
		return "", ErrSaveCancelled
	}
	if err != nil {
		return "", fmt.Errorf("save dialog: %w", err)
	}
	target := strings.TrimSpace(out)
	if target == "" {
		return "", ErrSaveCancelled
	}
	if err := fileutil.WriteFileAtomic(target, content, 0o644); err != nil {
		return "", err
	}
	b.logger.Info("artifact saved",
		logging.String("path", target),
		logging.Int("bytes", len(content)),
	)
	return target, nil
}

func graphicalSession() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func defaultDialogRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", errDialogDismissed
		}
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(output), nil
}
