package extraction

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/subtitles"
)

// Segment is one timed span of recognized speech. Times are in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Engine recognizes speech in a media file. An empty language means
// auto-detect. The returned sequence may be consumed once.
type Engine interface {
	Transcribe(ctx context.Context, path, language string) (iter.Seq2[Segment, error], error)
}

// Request describes one extraction run.
type Request struct {
	VideoPath string
	// OutputPath defaults to the video path with a .srt extension.
	OutputPath string
	Language   string
}

// Status is the terminal state of an extraction run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Result reports what an extraction produced. Cues holds every entry formatted
// before the run ended, including for cancelled runs.
type Result struct {
	Status     Status
	Cues       subtitles.CueSet
	OutputPath string
	Saved      bool
}

// Supervisor runs one extraction at a time.
type Supervisor struct {
	engine Engine
	logger *slog.Logger
	busy   atomic.Bool
}

// NewSupervisor wraps engine.
func NewSupervisor(engine Engine, logger *slog.Logger) *Supervisor {
	return &Supervisor{engine: engine, logger: logging.NewComponentLogger(logger, "extraction")}
}

// DefaultOutputPath returns <dir>/<stem>.srt for a video path.
func DefaultOutputPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".srt"
}

// Extract transcribes req.VideoPath and writes the SRT. onEntry, when set,
// sees each entry as it is formatted. Cancellation stops consumption before
// the next segment; entries formatted so far stay in the result but nothing is
// written.
func (s *Supervisor) Extract(ctx context.Context, req Request, onEntry func(subtitles.Cue)) (Result, error) {
	result := Result{Status: StatusFailed}
	videoPath := strings.TrimSpace(req.VideoPath)
	if videoPath == "" {
		return result, services.Wrap(services.ErrValidation, "extraction", "validate", "video path required", nil)
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "extraction", "validate", "video not readable: "+videoPath, err)
	}
	if info.IsDir() {
		return result, services.Wrap(services.ErrValidation, "extraction", "validate", "video path is a directory: "+videoPath, nil)
	}
	if s.engine == nil {
		return result, services.Wrap(services.ErrConfiguration, "extraction", "validate", "speech engine not configured", nil)
	}
	result.OutputPath = strings.TrimSpace(req.OutputPath)
	if result.OutputPath == "" {
		result.OutputPath = DefaultOutputPath(videoPath)
	}

	if !s.busy.CompareAndSwap(false, true) {
		return result, services.Wrap(services.ErrJobActive, "extraction", "run", "an extraction is already running", nil)
	}
	defer s.busy.Store(false)

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("extraction started", logging.String("video", videoPath), logging.String("language", req.Language))

	if ctx.Err() != nil {
		result.Status = StatusCancelled
		return result, nil
	}
	segments, err := s.engine.Transcribe(ctx, videoPath, strings.TrimSpace(req.Language))
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			result.Status = StatusCancelled
			logger.Info("extraction cancelled during transcription")
			return result, nil
		}
		return result, err
	}

	cancelled := false
	for segment, segErr := range segments {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if segErr != nil {
			return result, services.Wrap(services.ErrExternalTool, "extraction", "read segments", "speech engine stream failed", segErr)
		}
		// Blank segments are dropped; cue indices stay sequential.
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		cue := subtitles.Cue{
			Index: len(result.Cues) + 1,
			Start: subtitles.SecondsToDuration(segment.Start),
			End:   subtitles.SecondsToDuration(segment.End),
			Lines: []string{text},
		}
		result.Cues = append(result.Cues, cue)
		logger.Debug("segment",
			logging.Int("index", cue.Index),
			logging.String("start", subtitles.FormatTimestamp(cue.Start)),
			logging.String("text", text),
		)
		if onEntry != nil {
			onEntry(cue)
		}
	}

	if cancelled {
		result.Status = StatusCancelled
		logger.Info("extraction cancelled", logging.Int("entries", len(result.Cues)))
		return result, nil
	}

	result.Status = StatusCompleted
	if len(result.Cues) == 0 {
		logging.WarnWithContext(logger, "no speech recognized; nothing written", "extraction_empty",
			logging.String(logging.FieldImpact, "no subtitle file produced"),
			logging.String(logging.FieldErrorHint, "check the audio track or pass --language"),
		)
		return result, nil
	}
	if err := subtitles.WriteFile(result.OutputPath, result.Cues); err != nil {
		result.Status = StatusFailed
		return result, fmt.Errorf("write %s: %w", result.OutputPath, err)
	}
	result.Saved = true
	logger.Info("extraction finished", logging.Int("entries", len(result.Cues)), logging.String("output", result.OutputPath))
	return result, nil
}
