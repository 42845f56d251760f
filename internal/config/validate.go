package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"

	"captionary/internal/textutil"
)

var (
	validDevices      = []string{"cpu", "cuda"}
	validComputeTypes = []string{"int8", "int8_float16", "float16", "float32"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https, got %q", c.Server.URL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server.url must include a host, got %q", c.Server.URL)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !slices.Contains(validDevices, c.Transcription.Device) {
		return fmt.Errorf("transcription.device must be one of %v, got %q", validDevices, c.Transcription.Device)
	}
	if !slices.Contains(validComputeTypes, c.Transcription.ComputeType) {
		return fmt.Errorf("transcription.compute_type must be one of %v, got %q", validComputeTypes, c.Transcription.ComputeType)
	}
	if _, err := textutil.ParseOffset(c.Transcription.Offset); err != nil {
		return fmt.Errorf("transcription.offset: %w", err)
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if textutil.SanitizeFileName(c.Delivery.DefaultFilename) != c.Delivery.DefaultFilename {
		return errors.New("delivery.default_filename must be a plain file name")
	}
	if filepath.Ext(c.Delivery.DefaultFilename) == "" {
		return errors.New("delivery.default_filename must include an extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", validLogLevels, c.Logging.Level)
	}
	return nil
}

// ValidDevices lists the accepted transcription.device values.
func ValidDevices() []string { return slices.Clone(validDevices) }

// ValidComputeTypes lists the accepted transcription.compute_type values.
func ValidComputeTypes() []string { return slices.Clone(validComputeTypes) }
