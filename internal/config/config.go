package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"captionary/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains the transcription service endpoint settings.
type Server struct {
	URL                   string `toml:"url"`
	Endpoint              string `toml:"endpoint"`
	ResponseHeaderTimeout int    `toml:"response_header_timeout"`
}

// Transcription contains the defaults sent with every submission.
type Transcription struct {
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	Device      string `toml:"device"`
	ComputeType string `toml:"compute_type"`
	Offset      string `toml:"offset"`
}

// Delivery contains configuration for the download fallback sink.
type Delivery struct {
	DownloadDir     string `toml:"download_dir"`
	DefaultFilename string `toml:"default_filename"`
}

// Native contains configuration for the host dialog bridge.
type Native struct {
	Enabled       bool   `toml:"enabled"`
	DialogCommand string `toml:"dialog_command"`
}

// Paths contains directories used by the client itself.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Captionary.
//
// Configuration sections by subsystem:
//   - Server: transcription service URL and endpoint
//   - Transcription: model, language, device and offset defaults
//   - Delivery: download directory and fallback filename
//   - Native: host file dialog bridge
//   - Paths: state (session lock) and log directories
//   - Logging: log format and level
type Config struct {
	Server        Server        `toml:"server"`
	Transcription Transcription `toml:"transcription"`
	Delivery      Delivery      `toml:"delivery"`
	Native        Native        `toml:"native"`
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath returns the explicit path when given; otherwise the
// first existing candidate in search order, or the default location.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isConfigFile(expanded)
		return expanded, exists, err
	}

	defaultPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := ExpandPath(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if ok, _ := isConfigFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

func isConfigFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the state and log directories. The download
// directory is created lazily by the download sink on first use.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TranscribeURL returns the absolute URL submissions are posted to.
func (c *Config) TranscribeURL() string {
	return strings.TrimRight(c.Server.URL, "/") + c.Server.Endpoint
}

// SessionLockPath returns the lock file guarding the single active session.
func (c *Config) SessionLockPath() string {
	return filepath.Join(c.Paths.StateDir, "session.lock")
}

// ExpandPath resolves a leading "~" against the home directory and returns
// a cleaned absolute path. Empty input stays empty.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimPrefix(pathValue, "~"))
	}
	absolute, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "captionary")
	}
	return "~/.local/state/captionary"
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
