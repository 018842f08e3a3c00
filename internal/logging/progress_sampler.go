package logging

import (
	"strings"
	"time"
)

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when the phase changes or the position crosses an interval boundary.
type ProgressSampler struct {
	interval   time.Duration
	lastPhase  string
	lastBucket int64
}

// NewProgressSampler constructs a sampler that emits when the position crosses
// interval boundaries (default 30s of media time) or when the phase changes.
func NewProgressSampler(interval time.Duration) *ProgressSampler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ProgressSampler{interval: interval, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. A negative
// position means "unknown"; phase is trimmed before comparison.
func (s *ProgressSampler) ShouldLog(position time.Duration, phase string) bool {
	if s == nil {
		return true
	}
	phase = strings.TrimSpace(phase)
	emit := false
	if phase != "" && phase != s.lastPhase {
		s.lastPhase = phase
		s.lastBucket = -1
		emit = true
	}
	if position >= 0 {
		bucket := int64(position / s.interval)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state (e.g. when a new job starts).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastPhase = ""
	s.lastBucket = -1
}
