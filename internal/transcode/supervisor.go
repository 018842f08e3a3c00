package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"subforge/internal/logging"
	"subforge/internal/services"
)

const (
	defaultTailLines   = 20
	defaultEventBuffer = 64
	defaultKillGrace   = 5 * time.Second
	preflightTimeout   = 15 * time.Second
	maxLineBytes       = 1024 * 1024
)

// OutcomeStatus is the terminal result of a supervised run.
type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeCancelled OutcomeStatus = "cancelled"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome summarizes a finished run. ExitCode and Tail are set for failures.
type Outcome struct {
	Status   OutcomeStatus
	ExitCode int
	Tail     []string
	Elapsed  time.Duration
}

// ExecutionError reports a nonzero ffmpeg exit with the last log lines.
type ExecutionError struct {
	ExitCode int
	Tail     []string
	Err      error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with status %d", e.ExitCode)
	if len(e.Tail) > 0 {
		msg += ": " + e.Tail[len(e.Tail)-1]
	}
	return msg
}

func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithSupervisorLogger sets the logger used for lifecycle messages.
func WithSupervisorLogger(logger *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithKillGrace sets how long a terminated process may take to exit before it
// is killed.
func WithKillGrace(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.killGrace = d
		}
	}
}

// Supervisor runs one ffmpeg process at a time.
type Supervisor struct {
	logger    *slog.Logger
	killGrace time.Duration
	tailLines int
	buffer    int
	busy      atomic.Bool
}

// NewSupervisor constructs a Supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		killGrace: defaultKillGrace,
		tailLines: defaultTailLines,
		buffer:    defaultEventBuffer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = logging.NewComponentLogger(s.logger, "transcode")
	return s
}

// Preflight verifies binary can be invoked with -version.
func Preflight(ctx context.Context, binary string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return services.Wrap(services.ErrToolUnavailable, "transcode", "preflight", "ffmpeg binary not configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary, "-version") //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return services.Wrap(services.ErrToolUnavailable, "transcode", "preflight",
			fmt.Sprintf("%s is not invocable; install ffmpeg or set transcode.ffmpeg_binary", binary), err)
	}
	return nil
}

// Run executes argv (argv[0] is the binary) and streams its stderr. Progress
// lines go to onProgress and all other lines to onLog, in emission order, on
// the calling goroutine. Cancelling ctx terminates the process group and
// yields OutcomeCancelled with a nil error.
func (s *Supervisor) Run(ctx context.Context, argv []string, onProgress func(Event), onLog func(string)) (Outcome, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Outcome{Status: OutcomeFailed}, services.Wrap(services.ErrValidation, "transcode", "run", "command is empty", nil)
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Outcome{Status: OutcomeFailed}, services.Wrap(services.ErrJobActive, "transcode", "run", "a transcode is already running", nil)
	}
	defer s.busy.Store(false)

	logger := logging.WithContext(ctx, s.logger)
	if ctx.Err() != nil {
		return Outcome{Status: OutcomeCancelled}, nil
	}
	if err := Preflight(ctx, argv[0]); err != nil {
		if ctx.Err() != nil {
			logger.Info("ffmpeg cancelled before start")
			return Outcome{Status: OutcomeCancelled}, nil
		}
		return Outcome{Status: OutcomeFailed}, err
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	setProcessGroup(cmd)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{Status: OutcomeFailed}, services.Wrap(services.ErrExternalTool, "transcode", "run", "stderr pipe", err)
	}
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{Status: OutcomeFailed}, services.Wrap(services.ErrExternalTool, "transcode", "run", "start ffmpeg", err)
	}
	logger.Info("ffmpeg started", logging.Int("pid", cmd.Process.Pid), logging.String("command", strings.Join(argv, " ")))

	events := make(chan Event, s.buffer)
	stop := make(chan struct{})
	readErr := make(chan error, 1)
	go readEvents(stderr, events, stop, readErr)

	tail := newLineTail(s.tailLines)
	for {
		var (
			event Event
			ok    bool
		)
		select {
		case <-ctx.Done():
			return s.cancel(cmd, stop, started, logger), nil
		case event, ok = <-events:
		}
		if !ok {
			break
		}
		if ctx.Err() != nil {
			return s.cancel(cmd, stop, started, logger), nil
		}
		if event.Kind == EventProgress {
			if onProgress != nil {
				onProgress(event)
			}
			continue
		}
		tail.add(event.Line)
		if onLog != nil {
			onLog(event.Line)
		}
	}

	if err := <-readErr; err != nil {
		logger.Warn("ffmpeg stderr read failed", logging.Error(err))
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(started)
	if waitErr == nil {
		logger.Info("ffmpeg finished", logging.Duration("elapsed", elapsed))
		return Outcome{Status: OutcomeSuccess, Elapsed: elapsed}, nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	outcome := Outcome{Status: OutcomeFailed, ExitCode: exitCode, Tail: tail.lines(), Elapsed: elapsed}
	return outcome, &ExecutionError{ExitCode: exitCode, Tail: outcome.Tail, Err: waitErr}
}

func (s *Supervisor) cancel(cmd *exec.Cmd, stop chan struct{}, started time.Time, logger *slog.Logger) Outcome {
	close(stop)
	if err := terminateProcess(cmd); err != nil {
		logger.Warn("ffmpeg terminate failed", logging.Error(err))
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(s.killGrace):
		logging.WarnWithContext(logger, "ffmpeg ignored termination; killing", "transcode_kill",
			logging.Duration("grace", s.killGrace),
			logging.String(logging.FieldImpact, "partial output file left behind"),
		)
		_ = killProcess(cmd)
		<-exited
	}
	logger.Info("ffmpeg cancelled")
	return Outcome{Status: OutcomeCancelled, ExitCode: -1, Elapsed: time.Since(started)}
}

// readEvents splits r on CR or LF, drops blank lines, and classifies each one.
func readEvents(r io.Reader, events chan<- Event, stop <-chan struct{}, done chan<- error) {
	defer close(events)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanLinesCR)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case events <- ClassifyLine(line):
		case <-stop:
			done <- nil
			return
		}
	}
	done <- scanner.Err()
}

// scanLinesCR is bufio.ScanLines that also treats a bare '\r' as a line end.
func scanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

type lineTail struct {
	max int
	buf []string
}

func newLineTail(max int) *lineTail {
	return &lineTail{max: max}
}

func (t *lineTail) add(line string) {
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
}

func (t *lineTail) lines() []string {
	return append([]string(nil), t.buf...)
}
