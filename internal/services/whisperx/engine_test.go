package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"subforge/internal/extraction"
	"subforge/internal/services"
)

type call struct {
	name string
	args []string
}

func argValue(args []string, flag string) string {
	if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
		return args[i+1]
	}
	return ""
}

func lookPathWith(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		if slices.Contains(available, name) {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
}

func newTestEngine(cfg Config, available []string, calls *[]call, transcript string) *Engine {
	e := NewEngine(cfg, nil)
	e.WithLookPath(lookPathWith(available...))
	e.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, call{name: name, args: args})
		if name == UVXCommand && transcript != "" {
			dir := argValue(args, "--output_dir")
			return os.WriteFile(filepath.Join(dir, "audio.json"), []byte(transcript), 0o644)
		}
		return nil
	})
	return e
}

func collect(t *testing.T, e *Engine, language string) []extraction.Segment {
	t.Helper()
	seq, err := e.Transcribe(context.Background(), "/media/movie.mkv", language)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	var out []extraction.Segment
	for seg, err := range seq {
		if err != nil {
			t.Fatalf("segment error: %v", err)
		}
		out = append(out, seg)
	}
	return out
}

const sampleTranscript = `{"segments":[{"text":" Hello there.","start":0.5,"end":1.25},{"text":"General Kenobi!","start":2,"end":3.5}]}`

func TestTranscribeRunsFFmpegThenWhisperX(t *testing.T) {
	var calls []call
	e := newTestEngine(Config{Device: DeviceCPU, ModelDir: "/models"}, []string{UVXCommand, FFmpegCommand}, &calls, sampleTranscript)

	segments := collect(t, e, "English")

	if len(calls) != 2 || calls[0].name != FFmpegCommand || calls[1].name != UVXCommand {
		t.Fatalf("unexpected calls %+v", calls)
	}
	audio := calls[0].args[len(calls[0].args)-1]
	if filepath.Base(audio) != "audio.wav" || argValue(calls[0].args, "-map") != "0:a:0" || argValue(calls[0].args, "-ar") != "16000" {
		t.Fatalf("unexpected ffmpeg args %v", calls[0].args)
	}
	uvx := calls[1].args
	if !slices.Contains(uvx, audio) {
		t.Fatalf("whisperx should read extracted audio, args %v", uvx)
	}
	checks := map[string]string{
		"--model":         DefaultModel,
		"--output_format": "json",
		"--language":      "en",
		"--device":        DeviceCPU,
		"--compute_type":  CPUComputeType,
		"--model_dir":     "/models",
		"--vad_method":    VADMethod,
		"--index-url":     PypiIndexURL,
	}
	for flag, want := range checks {
		if got := argValue(uvx, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}

	if len(segments) != 2 || segments[0].Text != " Hello there." || segments[1].Start != 2 || segments[1].End != 3.5 {
		t.Fatalf("unexpected segments %+v", segments)
	}
	if _, err := os.Stat(filepath.Dir(audio)); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, stat err=%v", err)
	}
}

func TestTranscribeAutoDevice(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		want      string
	}{
		{"gpu present", []string{UVXCommand, FFmpegCommand, NvidiaSMI}, DeviceCUDA},
		{"cpu only", []string{UVXCommand, FFmpegCommand}, DeviceCPU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []call
			e := newTestEngine(Config{}, tt.available, &calls, sampleTranscript)
			collect(t, e, "")
			uvx := calls[1].args
			if got := argValue(uvx, "--device"); got != tt.want {
				t.Fatalf("device = %q, want %q", got, tt.want)
			}
			if slices.Contains(uvx, "--language") {
				t.Fatalf("auto language should omit --language: %v", uvx)
			}
			if tt.want == DeviceCUDA && argValue(uvx, "--index-url") != CUDAIndexURL {
				t.Fatalf("expected CUDA index url, got %v", uvx)
			}
		})
	}
}

func TestTranscribeMissingBinaries(t *testing.T) {
	var calls []call
	e := newTestEngine(Config{}, []string{FFmpegCommand}, &calls, sampleTranscript)
	_, err := e.Transcribe(context.Background(), "/media/movie.mkv", "")
	if !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("expected ErrToolUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), UVXCommand) {
		t.Fatalf("error should name the missing binary: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("no command should run, got %+v", calls)
	}
}

func TestTranscribeCommandFailure(t *testing.T) {
	e := NewEngine(Config{}, nil)
	e.WithLookPath(lookPathWith(UVXCommand, FFmpegCommand))
	e.WithCommandRunner(func(_ context.Context, name string, _ ...string) error {
		if name == UVXCommand {
			return errors.New("exit status 1: CUDA out of memory")
		}
		return nil
	})
	_, err := e.Transcribe(context.Background(), "/media/movie.mkv", "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestTranscribeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := NewEngine(Config{}, nil)
	e.WithLookPath(lookPathWith(UVXCommand, FFmpegCommand))
	e.WithCommandRunner(func(ctx context.Context, _ string, _ ...string) error {
		cancel()
		return ctx.Err()
	})
	_, err := e.Transcribe(ctx, "/media/movie.mkv", "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranscribeMissingOutput(t *testing.T) {
	var calls []call
	e := newTestEngine(Config{}, []string{UVXCommand, FFmpegCommand}, &calls, "")
	_, err := e.Transcribe(context.Background(), "/media/movie.mkv", "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestLoadSegmentsRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSegments(path); err == nil {
		t.Fatal("expected parse error")
	}
}
