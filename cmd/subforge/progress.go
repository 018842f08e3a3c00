package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"subforge/internal/logging"
	"subforge/internal/transcode"
)

// burnProgress renders ffmpeg progress as a single rewritten line on a
// terminal and as sampled log records otherwise.
type burnProgress struct {
	out     io.Writer
	live    bool
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   time.Duration
	printed bool
}

func newBurnProgress(out io.Writer, logger *slog.Logger) *burnProgress {
	return &burnProgress{
		out:     out,
		live:    isTerminal(out),
		logger:  logger,
		sampler: logging.NewProgressSampler(30 * time.Second),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *burnProgress) onLog(line string) {
	if p.total == 0 {
		if d, ok := transcode.ParseInputDuration(line); ok {
			p.total = d
		}
	}
	p.logger.Debug("ffmpeg", logging.String("line", line))
}

func (p *burnProgress) onProgress(event transcode.Event) {
	if p.live {
		fmt.Fprintf(p.out, "\r\033[K%s", p.describe(event.Progress))
		p.printed = true
		return
	}
	if !event.Progress.HasTime || !p.sampler.ShouldLog(event.Progress.Time, "encoding") {
		return
	}
	attrs := []logging.Attr{logging.Duration("position", event.Progress.Time)}
	if pct, ok := p.percent(event.Progress); ok {
		attrs = append(attrs, logging.Float64(logging.FieldProgressPercent, pct))
	}
	if event.Progress.HasSpeed {
		attrs = append(attrs, logging.Float64("speed", event.Progress.Speed))
	}
	p.logger.Info("burn progress", logging.Args(attrs...)...)
}

func (p *burnProgress) describe(progress transcode.Progress) string {
	text := "encoding"
	if progress.HasTime {
		text = fmt.Sprintf("encoded %s", progress.Time.Truncate(time.Second))
	}
	if pct, ok := p.percent(progress); ok {
		text += fmt.Sprintf(" (%.1f%%)", pct)
	}
	if progress.HasFrame {
		text += fmt.Sprintf(" frame %d", progress.Frame)
	}
	if progress.HasSpeed {
		text += fmt.Sprintf(" speed %.2fx", progress.Speed)
	}
	return text
}

func (p *burnProgress) percent(progress transcode.Progress) (float64, bool) {
	if p.total <= 0 || !progress.HasTime {
		return 0, false
	}
	return min(100, float64(progress.Time)/float64(p.total)*100), true
}

// done ends the live line so following output starts on a fresh line.
func (p *burnProgress) done() {
	if p.live && p.printed {
		fmt.Fprintln(p.out)
	}
}
