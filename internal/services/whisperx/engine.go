package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subforge/internal/extraction"
	langpkg "subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/services"
)

// CommandRunner executes an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Engine transcribes media files with WhisperX.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	run      CommandRunner
	lookPath func(string) (string, error)
}

// NewEngine creates a WhisperX engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	e := &Engine{
		cfg:      cfg.withDefaults(),
		logger:   logging.NewComponentLogger(logger, "whisperx"),
		lookPath: exec.LookPath,
	}
	e.run = e.execCommand
	return e
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Engine) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		e.run = runner
	}
}

// WithLookPath overrides binary resolution (for testing).
func (e *Engine) WithLookPath(lookPath func(string) (string, error)) {
	if lookPath != nil {
		e.lookPath = lookPath
	}
}

// Model returns the configured model name for logging.
func (e *Engine) Model() string {
	return e.cfg.Model
}

// Transcribe extracts the audio of path, runs WhisperX and yields its
// segments. An empty language lets WhisperX detect it.
func (e *Engine) Transcribe(ctx context.Context, path, language string) (iter.Seq2[extraction.Segment, error], error) {
	for _, binary := range []string{e.cfg.UVXBinary, e.cfg.FFmpegBinary} {
		if _, err := e.lookPath(binary); err != nil {
			return nil, services.Wrap(services.ErrToolUnavailable, "whisperx", "preflight", fmt.Sprintf("binary %q not found", binary), err)
		}
	}

	workDir, err := os.MkdirTemp("", "subforge-whisperx-")
	if err != nil {
		return nil, fmt.Errorf("whisperx: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, "audio.wav")
	e.logger.Debug("extracting audio", logging.String("source", path), logging.String("dest", audioPath))
	if err := e.run(ctx, e.cfg.FFmpegBinary, buildAudioArgs(path, audioPath)...); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("whisperx: %w", ctx.Err())
		}
		return nil, services.Wrap(services.ErrExternalTool, "whisperx", "extract audio", "ffmpeg failed", err)
	}

	device := e.resolveDevice()
	args := e.buildArgs(audioPath, workDir, language, device)
	e.logger.Info("running whisperx",
		logging.String("model", e.cfg.Model),
		logging.String("device", device),
		logging.String("language", langpkg.ToISO2(language)),
	)
	if err := e.run(ctx, e.cfg.UVXBinary, args...); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("whisperx: %w", ctx.Err())
		}
		return nil, services.Wrap(services.ErrExternalTool, "whisperx", "transcribe", "whisperx failed", err)
	}

	segments, err := LoadSegments(filepath.Join(workDir, "audio.json"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "whisperx", "load output", "unreadable transcript", err)
	}
	e.logger.Debug("transcript loaded", logging.Int("segments", len(segments)))

	return func(yield func(extraction.Segment, error) bool) {
		for _, seg := range segments {
			if !yield(extraction.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}, nil) {
				return
			}
		}
	}, nil
}

func (e *Engine) resolveDevice() string {
	switch e.cfg.Device {
	case DeviceCPU, DeviceCUDA:
		return e.cfg.Device
	}
	if _, err := e.lookPath(NvidiaSMI); err == nil {
		return DeviceCUDA
	}
	return DeviceCPU
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (e *Engine) buildArgs(source, outputDir, language, device string) []string {
	args := make([]string, 0, 32)

	if device == DeviceCUDA {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", e.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--vad_method", VADMethod,
	)
	if e.cfg.ModelDir != "" {
		args = append(args, "--model_dir", e.cfg.ModelDir)
	}
	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}
	if device == DeviceCUDA {
		args = append(args, "--device", DeviceCUDA)
	} else {
		args = append(args, "--device", DeviceCPU, "--compute_type", CPUComputeType)
	}
	return args
}

func (e *Engine) execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 defaults torch.load to weights_only, which WhisperX checkpoints fail.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Segment is one transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}
