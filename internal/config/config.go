package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// LLM contains translation backend connection settings.
type LLM struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	Referer             string `toml:"referer"`
	Title               string `toml:"title"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	RetryAttempts       int    `toml:"retry_attempts"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds"`
}

// Translation contains batching settings for subtitle translation jobs.
type Translation struct {
	TargetLanguage    string  `toml:"target_language"`
	BatchSize         int     `toml:"batch_size"`
	BatchDelaySeconds float64 `toml:"batch_delay_seconds"`
}

// Transcode contains ffmpeg settings for burning subtitles into video.
type Transcode struct {
	FFmpegBinary    string `toml:"ffmpeg_binary"`
	VideoCodec      string `toml:"video_codec"`
	AudioCodec      string `toml:"audio_codec"`
	Quality         int    `toml:"quality"`
	SubtitleCharset string `toml:"subtitle_charset"`
}

// Style contains the default burned-in subtitle appearance.
type Style struct {
	FontName         string `toml:"font_name"`
	FontSize         int    `toml:"font_size"`
	PrimaryColor     string `toml:"primary_color"`
	OutlineColor     string `toml:"outline_color"`
	OutlineWidth     int    `toml:"outline_width"`
	Bold             bool   `toml:"bold"`
	Italic           bool   `toml:"italic"`
	Position         string `toml:"position"`
	MarginVertical   int    `toml:"margin_vertical"`
	MarginHorizontal int    `toml:"margin_horizontal"`
}

// Extraction contains speech engine settings for subtitle extraction.
type Extraction struct {
	UVXBinary string `toml:"uvx_binary"`
	Model     string `toml:"model"`
	ModelDir  string `toml:"model_dir"`
	Device    string `toml:"device"`
	Language  string `toml:"language"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for subforge.
//
// Configuration sections by subsystem:
//   - Paths: state (history database, locks) and log directories
//   - LLM: translation backend credentials, model, and retry policy
//   - Translation: target language, batch size, and inter-batch delay
//   - Transcode: ffmpeg binary, codecs, and quality
//   - Style: default burned-in subtitle appearance
//   - Extraction: WhisperX model and device selection
//   - Logging: log format, level, and per-job log retention
type Config struct {
	Paths       Paths       `toml:"paths"`
	LLM         LLM         `toml:"llm"`
	Translation Translation `toml:"translation"`
	Transcode   Transcode   `toml:"transcode"`
	Style       Style       `toml:"style"`
	Extraction  Extraction  `toml:"extraction"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Variables from a .env file next to the
// config file or in the working directory are loaded before environment
// fallbacks apply; variables already set in the environment win.
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
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(configDir string) error {
	candidates := []string{".env"}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load env file %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
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

// HistoryPath returns the job history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// JobLogDir returns the directory holding per-job log files.
func (c *Config) JobLogDir() string {
	return filepath.Join(c.Paths.LogDir, "jobs")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
