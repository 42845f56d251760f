package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"captionary/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The native bridge is disabled so tests never open a dialog.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Delivery.DownloadDir = filepath.Join(base, "downloads")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Native.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServerURL points the config at a (fake) transcription server.
func WithServerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.URL = url
	}
}

// StubDialog scripts the answers of a fake zenity-compatible executable.
type StubDialog struct {
	// Picked is printed for file selection dialogs.
	Picked string
	// Saved is printed for save dialogs.
	Saved    string
	ExitCode int
}

// WithStubbedDialog writes a stub dialog executable, prepends it to PATH and
// enables the native bridge.
func WithStubbedDialog(dialog StubDialog) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		code := strconv.Itoa(dialog.ExitCode)
		script := "#!/bin/sh\n" +
			"for arg in \"$@\"; do\n" +
			"  if [ \"$arg\" = \"--save\" ]; then\n" +
			"    printf '%s\\n' '" + dialog.Saved + "'\n" +
			"    exit " + code + "\n" +
			"  fi\n" +
			"done\n" +
			"printf '%s\\n' '" + dialog.Picked + "'\n" +
			"exit " + code + "\n"
		target := filepath.Join(binDir, "fake-zenity")
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub dialog: %v", err)
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
		b.cfg.Native.Enabled = true
		b.cfg.Native.DialogCommand = "fake-zenity"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
