package config

import (
	"fmt"
	"os"
	"strings"
)

// apiKeyEnvVars lists the environment variables consulted, in order, when
// llm.api_key is empty.
var apiKeyEnvVars = []string{"SUBFORGE_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY"}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTranslation()
	c.normalizeTranscode()
	c.normalizeStyle()
	if err := c.normalizeExtraction(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, name := range apiKeyEnvVars {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.TargetLanguage = strings.TrimSpace(c.Translation.TargetLanguage)
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = defaultTargetLanguage
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.VideoCodec = strings.ToLower(strings.TrimSpace(c.Transcode.VideoCodec))
	if c.Transcode.VideoCodec == "" {
		c.Transcode.VideoCodec = defaultVideoCodec
	}
	c.Transcode.AudioCodec = strings.ToLower(strings.TrimSpace(c.Transcode.AudioCodec))
	if c.Transcode.AudioCodec == "" {
		c.Transcode.AudioCodec = defaultAudioCodec
	}
	c.Transcode.SubtitleCharset = strings.TrimSpace(c.Transcode.SubtitleCharset)
}

func (c *Config) normalizeStyle() {
	c.Style.FontName = strings.TrimSpace(c.Style.FontName)
	if c.Style.FontName == "" {
		c.Style.FontName = defaultFontName
	}
	c.Style.PrimaryColor = strings.TrimPrefix(strings.TrimSpace(c.Style.PrimaryColor), "#")
	c.Style.OutlineColor = strings.TrimPrefix(strings.TrimSpace(c.Style.OutlineColor), "#")
	c.Style.Position = strings.ToLower(strings.TrimSpace(c.Style.Position))
	if c.Style.Position == "" {
		c.Style.Position = defaultPosition
	}
}

func (c *Config) normalizeExtraction() error {
	c.Extraction.UVXBinary = strings.TrimSpace(c.Extraction.UVXBinary)
	if c.Extraction.UVXBinary == "" {
		c.Extraction.UVXBinary = defaultUVXBinary
	}
	c.Extraction.Model = strings.TrimSpace(c.Extraction.Model)
	if c.Extraction.Model == "" {
		c.Extraction.Model = defaultExtractionModel
	}
	c.Extraction.Device = strings.ToLower(strings.TrimSpace(c.Extraction.Device))
	if c.Extraction.Device == "" {
		c.Extraction.Device = defaultExtractionDevice
	}
	c.Extraction.Language = strings.ToLower(strings.TrimSpace(c.Extraction.Language))
	if c.Extraction.ModelDir == "" {
		if value, ok := os.LookupEnv(defaultExtractionModelDirEnv); ok {
			c.Extraction.ModelDir = strings.TrimSpace(value)
		}
	}
	if c.Extraction.ModelDir != "" {
		dir, err := expandPath(c.Extraction.ModelDir)
		if err != nil {
			return fmt.Errorf("extraction.model_dir: %w", err)
		}
		c.Extraction.ModelDir = dir
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
