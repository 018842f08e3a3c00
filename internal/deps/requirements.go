package deps

import "subforge/internal/config"

// Requirements lists the binaries subforge commands invoke. ffmpeg is
// required for burning; the extraction tools are optional.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg, uvx := "ffmpeg", "uvx"
	if cfg != nil {
		ffmpeg = cfg.Transcode.FFmpegBinary
		uvx = cfg.Extraction.UVXBinary
	}
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Burns subtitles and extracts audio"},
		{Name: "uvx", Command: uvx, Description: "Runs WhisperX for subtitle extraction", Optional: true},
		{Name: "nvidia-smi", Command: "nvidia-smi", Description: "Enables CUDA for extraction when device is auto", Optional: true},
	}
}
