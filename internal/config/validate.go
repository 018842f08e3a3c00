package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Validate ensures the configuration is usable. Credentials are not checked
// here; commands that talk to the backend call RequireLLM.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateStyle(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireLLM reports an actionable error when no backend API key is available.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("llm.api_key is required. Set one of %s or edit %s (create with 'subforge config init')",
		strings.Join(apiKeyEnvVars, ", "), defaultPath)
}

func (c *Config) validateLLM() error {
	if c.LLM.RetryAttempts < 1 {
		return errors.New("llm.retry_attempts must be at least 1")
	}
	if c.LLM.RetryBackoffSeconds < 0 {
		return errors.New("llm.retry_backoff_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.BatchSize < 1 {
		return errors.New("translation.batch_size must be at least 1")
	}
	if c.Translation.BatchDelaySeconds < 0 {
		return errors.New("translation.batch_delay_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.Quality < 0 || c.Transcode.Quality > 51 {
		return errors.New("transcode.quality must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateStyle() error {
	if c.Style.FontSize <= 0 {
		return errors.New("style.font_size must be positive")
	}
	if !hexColorPattern.MatchString(c.Style.PrimaryColor) {
		return fmt.Errorf("style.primary_color must be six hex digits, got %q", c.Style.PrimaryColor)
	}
	if !hexColorPattern.MatchString(c.Style.OutlineColor) {
		return fmt.Errorf("style.outline_color must be six hex digits, got %q", c.Style.OutlineColor)
	}
	if c.Style.OutlineWidth < 0 {
		return errors.New("style.outline_width must be >= 0")
	}
	switch c.Style.Position {
	case "top", "bottom", "center":
	default:
		return fmt.Errorf("style.position must be top, bottom, or center, got %q", c.Style.Position)
	}
	if c.Style.MarginVertical < 0 || c.Style.MarginHorizontal < 0 {
		return errors.New("style margins must be >= 0")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	switch c.Extraction.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("extraction.device must be auto, cpu, or cuda, got %q", c.Extraction.Device)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
