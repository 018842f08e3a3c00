package config

const (
	defaultConfigPath            = "~/.config/subforge/config.toml"
	defaultStateDir              = "~/.local/share/subforge"
	defaultLogDir                = "~/.local/share/subforge/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-2.5-flash"
	defaultLLMReferer            = "https://github.com/subforge/subforge"
	defaultLLMTitle              = "subforge"
	defaultLLMTimeoutSeconds     = 120
	defaultLLMRetryAttempts      = 3
	defaultLLMRetryBackoff       = 5
	defaultTargetLanguage        = "zh"
	defaultBatchSize             = 10
	defaultBatchDelaySeconds     = 2
	defaultFFmpegBinary          = "ffmpeg"
	defaultVideoCodec            = "libx264"
	defaultAudioCodec            = "aac"
	defaultQuality               = 23
	defaultSubtitleCharset       = "UTF-8"
	defaultFontName              = "Arial"
	defaultFontSize              = 16
	defaultPrimaryColor          = "FFFFFF"
	defaultOutlineColor          = "000000"
	defaultOutlineWidth          = 1
	defaultPosition              = "bottom"
	defaultMarginVertical        = 25
	defaultMarginHorizontal      = 20
	defaultUVXBinary             = "uvx"
	defaultExtractionModel       = "large-v3-turbo"
	defaultExtractionDevice      = "auto"
	defaultExtractionModelDirEnv = "SUBFORGE_MODEL_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		LLM: LLM{
			BaseURL:             defaultLLMBaseURL,
			Model:               defaultLLMModel,
			Referer:             defaultLLMReferer,
			Title:               defaultLLMTitle,
			TimeoutSeconds:      defaultLLMTimeoutSeconds,
			RetryAttempts:       defaultLLMRetryAttempts,
			RetryBackoffSeconds: defaultLLMRetryBackoff,
		},
		Translation: Translation{
			TargetLanguage:    defaultTargetLanguage,
			BatchSize:         defaultBatchSize,
			BatchDelaySeconds: defaultBatchDelaySeconds,
		},
		Transcode: Transcode{
			FFmpegBinary:    defaultFFmpegBinary,
			VideoCodec:      defaultVideoCodec,
			AudioCodec:      defaultAudioCodec,
			Quality:         defaultQuality,
			SubtitleCharset: defaultSubtitleCharset,
		},
		Style: Style{
			FontName:         defaultFontName,
			FontSize:         defaultFontSize,
			PrimaryColor:     defaultPrimaryColor,
			OutlineColor:     defaultOutlineColor,
			OutlineWidth:     defaultOutlineWidth,
			Position:         defaultPosition,
			MarginVertical:   defaultMarginVertical,
			MarginHorizontal: defaultMarginHorizontal,
		},
		Extraction: Extraction{
			UVXBinary: defaultUVXBinary,
			Model:     defaultExtractionModel,
			Device:    defaultExtractionDevice,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
