package transcode

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EventKind distinguishes ffmpeg status lines from other diagnostics.
type EventKind int

const (
	EventLog EventKind = iota
	EventProgress
)

func (k EventKind) String() string {
	if k == EventProgress {
		return "progress"
	}
	return "log"
}

// Progress holds the fields parsed from an ffmpeg status line. The Has flags
// report which fields were present and parseable.
type Progress struct {
	Frame    int64
	HasFrame bool
	Time     time.Duration
	HasTime  bool
	Speed    float64
	HasSpeed bool
}

// Event is one classified stderr line.
type Event struct {
	Kind     EventKind
	Line     string
	Progress Progress
}

var (
	framePattern    = regexp.MustCompile(`frame=\s*(\d+)`)
	timePattern     = regexp.MustCompile(`time=\s*(-?\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	speedPattern    = regexp.MustCompile(`speed=\s*([0-9.]+(?:e[+-]?\d+)?)x`)
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// IsProgressLine reports whether line is an ffmpeg status line: it must carry
// frame=, time= and speed=.
func IsProgressLine(line string) bool {
	return strings.Contains(line, "frame=") && strings.Contains(line, "time=") && strings.Contains(line, "speed=")
}

// ClassifyLine turns a stderr line into an Event.
func ClassifyLine(line string) Event {
	if !IsProgressLine(line) {
		return Event{Kind: EventLog, Line: line}
	}
	event := Event{Kind: EventProgress, Line: line}
	if m := framePattern.FindStringSubmatch(line); m != nil {
		if frame, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			event.Progress.Frame = frame
			event.Progress.HasFrame = true
		}
	}
	if m := timePattern.FindStringSubmatch(line); m != nil {
		if d, ok := clockDuration(m[1], m[2], m[3]); ok && d >= 0 {
			event.Progress.Time = d
			event.Progress.HasTime = true
		}
	}
	if m := speedPattern.FindStringSubmatch(line); m != nil {
		if speed, err := strconv.ParseFloat(m[1], 64); err == nil {
			event.Progress.Speed = speed
			event.Progress.HasSpeed = true
		}
	}
	return event
}

// ParseInputDuration extracts the media duration from ffmpeg's
// "Duration: HH:MM:SS.xx" input banner line.
func ParseInputDuration(line string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return clockDuration(m[1], m[2], m[3])
}

func clockDuration(hours, minutes, seconds string) (time.Duration, bool) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, false
	}
	s, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return 0, false
	}
	total := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s*float64(time.Second))
	return total, true
}
