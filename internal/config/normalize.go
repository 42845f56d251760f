package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.normalizeTranscription()
	if err := c.normalizeDelivery(); err != nil {
		return err
	}
	c.normalizeNative()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("CAPTIONARY_SERVER_URL"); ok && strings.TrimSpace(value) != "" {
		c.Server.URL = value
	}
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
	if c.Server.URL == "" {
		c.Server.URL = defaultServerURL
	}
	c.Server.Endpoint = strings.TrimSpace(c.Server.Endpoint)
	if c.Server.Endpoint == "" {
		c.Server.Endpoint = defaultEndpoint
	}
	if !strings.HasPrefix(c.Server.Endpoint, "/") {
		c.Server.Endpoint = "/" + c.Server.Endpoint
	}
	if c.Server.ResponseHeaderTimeout < 0 {
		c.Server.ResponseHeaderTimeout = 0
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "auto" {
		c.Transcription.Language = ""
	}
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	if c.Transcription.Device == "" {
		c.Transcription.Device = defaultDevice
	}
	c.Transcription.ComputeType = strings.ToLower(strings.TrimSpace(c.Transcription.ComputeType))
	if c.Transcription.ComputeType == "" {
		c.Transcription.ComputeType = defaultComputeType
	}
	c.Transcription.Offset = strings.TrimSpace(c.Transcription.Offset)
}

func (c *Config) normalizeDelivery() error {
	if value, ok := os.LookupEnv("CAPTIONARY_DOWNLOAD_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Delivery.DownloadDir = value
	}
	if strings.TrimSpace(c.Delivery.DownloadDir) == "" {
		c.Delivery.DownloadDir = defaultDownloadDir
	}
	var err error
	if c.Delivery.DownloadDir, err = ExpandPath(strings.TrimSpace(c.Delivery.DownloadDir)); err != nil {
		return fmt.Errorf("delivery.download_dir: %w", err)
	}
	c.Delivery.DefaultFilename = strings.TrimSpace(c.Delivery.DefaultFilename)
	if c.Delivery.DefaultFilename == "" {
		c.Delivery.DefaultFilename = defaultFilename
	}
	return nil
}

func (c *Config) normalizeNative() {
	c.Native.DialogCommand = strings.TrimSpace(c.Native.DialogCommand)
	if c.Native.DialogCommand == "" {
		c.Native.DialogCommand = defaultDialogCommand
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
