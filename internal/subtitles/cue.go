package subtitles

import (
	"slices"
	"strings"
	"time"
)

// Cue is one timed subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Text returns the cue lines joined with newlines.
func (c Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// WithLines returns a copy of the cue carrying lines. Index and timing are kept.
func (c Cue) WithLines(lines []string) Cue {
	c.Lines = slices.Clone(lines)
	if len(c.Lines) == 0 {
		c.Lines = []string{""}
	}
	return c
}

// CueSet is an ordered sequence of cues in display order.
type CueSet []Cue

// Clone deep-copies the set so callers can mutate lines without touching the
// source.
func (s CueSet) Clone() CueSet {
	if s == nil {
		return nil
	}
	out := make(CueSet, len(s))
	for i, cue := range s {
		cue.Lines = slices.Clone(cue.Lines)
		out[i] = cue
	}
	return out
}

// Renumber assigns sequential 1-based indexes in display order.
func (s CueSet) Renumber() {
	for i := range s {
		s[i].Index = i + 1
	}
}
