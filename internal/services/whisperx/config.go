package whisperx

import (
	"strings"

	"subforge/internal/config"
)

// Config captures runtime settings for WhisperX runs.
type Config struct {
	UVXBinary    string
	FFmpegBinary string
	// Model is the WhisperX model name (e.g. "large-v3-turbo").
	Model string
	// ModelDir, when set, is passed as --model_dir so weights are cached locally.
	ModelDir string
	// Device is auto, cpu or cuda. Auto picks cuda when nvidia-smi is on PATH.
	Device string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "large-v3-turbo"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	VADMethod         = "silero"
	CPUComputeType    = "float32"

	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
	NvidiaSMI     = "nvidia-smi"
)

// ConfigFrom builds engine settings from the extraction and transcode sections.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		UVXBinary:    cfg.Extraction.UVXBinary,
		FFmpegBinary: cfg.Transcode.FFmpegBinary,
		Model:        cfg.Extraction.Model,
		ModelDir:     cfg.Extraction.ModelDir,
		Device:       cfg.Extraction.Device,
	}
}

func (c Config) withDefaults() Config {
	c.UVXBinary = strings.TrimSpace(c.UVXBinary)
	if c.UVXBinary == "" {
		c.UVXBinary = UVXCommand
	}
	c.FFmpegBinary = strings.TrimSpace(c.FFmpegBinary)
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = FFmpegCommand
	}
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = DefaultModel
	}
	c.Device = strings.ToLower(strings.TrimSpace(c.Device))
	if c.Device == "" {
		c.Device = DeviceAuto
	}
	return c
}
