//go:build unix

package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subforge/internal/services"
	"subforge/internal/testsupport"
)

func writeFFmpegStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	testsupport.WriteScript(t, path, `if [ "$1" = "-version" ]; then echo "ffmpeg version 7.1"; exit 0; fi
`+body)
	return path
}

func TestSupervisorRunSuccessClassifiesLines(t *testing.T) {
	stub := writeFFmpegStub(t, `printf 'Input #0, matroska\n' >&2
printf 'Stream mapping:\n\n' >&2
printf 'frame=   10 fps=0.0 q=28.0 size=0kB time=00:00:00.40 bitrate=0.0kbits/s speed=0.8x\r' >&2
printf 'frame=   20 fps=20 q=28.0 size=256kB time=00:00:00.80 bitrate=2621.4kbits/s speed=1.6x\r' >&2
printf 'video:1024kB audio:128kB\n' >&2
exit 0
`)
	var (
		progress []Event
		logs     []string
	)
	outcome, err := NewSupervisor().Run(context.Background(), []string{stub, "-i", "in.mkv"},
		func(e Event) { progress = append(progress, e) },
		func(line string) { logs = append(logs, line) },
	)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Status != OutcomeSuccess {
		t.Fatalf("expected success, got %#v", outcome)
	}
	if len(progress) != 2 || progress[1].Progress.Frame != 20 || progress[1].Progress.Time != 800*time.Millisecond {
		t.Fatalf("unexpected progress events %#v", progress)
	}
	want := []string{"Input #0, matroska", "Stream mapping:", "video:1024kB audio:128kB"}
	if strings.Join(logs, "|") != strings.Join(want, "|") {
		t.Fatalf("logs = %q, want %q", logs, want)
	}
}

func TestSupervisorRunFailureKeepsTail(t *testing.T) {
	stub := writeFFmpegStub(t, `i=1
while [ $i -le 25 ]; do echo "log line $i" >&2; i=$((i+1)); done
echo "Conversion failed!" >&2
exit 3
`)
	outcome, err := NewSupervisor().Run(context.Background(), []string{stub}, nil, nil)
	if outcome.Status != OutcomeFailed || outcome.ExitCode != 3 {
		t.Fatalf("unexpected outcome %#v", outcome)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if len(execErr.Tail) != 20 || execErr.Tail[19] != "Conversion failed!" || execErr.Tail[0] != "log line 7" {
		t.Fatalf("unexpected tail %q", execErr.Tail)
	}
	if !strings.Contains(err.Error(), "status 3") {
		t.Fatalf("expected exit status in error, got %v", err)
	}
}

func TestSupervisorRunCancelTerminatesProcess(t *testing.T) {
	stub := writeFFmpegStub(t, `echo "starting" >&2
sleep 30
echo "should not appear" >&2
`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	var logs []string
	outcome, err := NewSupervisor(WithKillGrace(2*time.Second)).Run(ctx, []string{stub}, nil, func(line string) {
		logs = append(logs, line)
		cancel()
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Status != OutcomeCancelled {
		t.Fatalf("expected cancelled, got %#v", outcome)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("cancellation took too long: %v", elapsed)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one log line before cancel, got %q", logs)
	}
}

func TestSupervisorRunCancelledBeforeStart(t *testing.T) {
	stub := writeFFmpegStub(t, "exit 0\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, err := NewSupervisor().Run(ctx, []string{stub}, nil, nil)
	if err != nil || outcome.Status != OutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %#v %v", outcome, err)
	}
}

func TestSupervisorRunCancelledDuringVersionCheck(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffmpeg")
	marker := filepath.Join(dir, "ran")
	testsupport.WriteScript(t, stub, `if [ "$1" = "-version" ]; then exec sleep 10; fi
touch "`+marker+`"
exit 0
`)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcome, err := NewSupervisor().Run(ctx, []string{stub, "-i", "in.mkv"}, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome.Status != OutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %#v", outcome)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("version check was not interrupted (took %s)", elapsed)
	}
	if _, statErr := os.Stat(marker); statErr == nil {
		t.Fatal("ffmpeg should not have been started")
	}
}

func TestSupervisorPreflightFailure(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	testsupport.WriteScript(t, stub, "echo broken >&2\nexit 1\n")

	var logged bool
	_, err := NewSupervisor().Run(context.Background(), []string{stub}, nil, func(string) { logged = true })
	if !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("expected ErrToolUnavailable, got %v", err)
	}
	if logged {
		t.Fatal("process should not have been spawned")
	}

	_, err = NewSupervisor().Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, nil, nil)
	if !errors.Is(err, services.ErrToolUnavailable) {
		t.Fatalf("expected ErrToolUnavailable for missing binary, got %v", err)
	}
}

func TestSupervisorRejectsConcurrentRun(t *testing.T) {
	stub := writeFFmpegStub(t, "echo started >&2\nsleep 30\n")
	sup := NewSupervisor(WithKillGrace(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sup.Run(ctx, []string{stub}, nil, func(string) { close(started) })
	}()
	<-started

	if _, err := sup.Run(context.Background(), []string{stub}, nil, nil); !errors.Is(err, services.ErrJobActive) {
		t.Fatalf("expected ErrJobActive, got %v", err)
	}
	cancel()
	<-done
}

func TestSupervisorRunEmptyCommand(t *testing.T) {
	if _, err := NewSupervisor().Run(context.Background(), nil, nil, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
