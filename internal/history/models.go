package history

import (
	"strings"
	"time"
)

// Status is the recorded outcome of a job.
type Status string

const (
	StatusRunning               Status = "running"
	StatusCompleted             Status = "completed"
	StatusCompletedWithFallback Status = "completed_with_fallback"
	StatusCancelled             Status = "cancelled"
	StatusFailed                Status = "failed"
	StatusRejected              Status = "rejected"
)

var statusSet = map[Status]struct{}{
	StatusRunning:               {},
	StatusCompleted:             {},
	StatusCompletedWithFallback: {},
	StatusCancelled:             {},
	StatusFailed:                {},
	StatusRejected:              {},
}

// ParseStatus converts a string into a Status, returning false when unknown.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether the status closes a record.
func (s Status) IsTerminal() bool {
	return s != StatusRunning && s != ""
}

// Kind identifies which command produced a record.
type Kind string

const (
	KindTranslate Kind = "translate"
	KindBurn      Kind = "burn"
	KindExtract   Kind = "extract"
)

// ParseKind converts a string into a Kind, returning false when unknown.
func ParseKind(value string) (Kind, bool) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(value))); kind {
	case KindTranslate, KindBurn, KindExtract:
		return kind, true
	default:
		return "", false
	}
}

// AbandonedReason is the error message stamped on records closed by AbandonRunning.
const AbandonedReason = "process exited before the job finished"

// Record is a single job history row.
type Record struct {
	ID         string
	Kind       Kind
	Status     Status
	InputPath  string
	OutputPath string
	// Detail is a short human summary: target language and model for
	// translations, codec settings for burns, engine model for extraction.
	Detail        string
	Units         int
	FallbackUnits int
	ExitCode      *int
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Duration returns how long the job ran, or zero while it is still running.
func (r Record) Duration() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the terminal information recorded by Finish.
type Outcome struct {
	Status        Status
	Units         int
	FallbackUnits int
	ExitCode      *int
	Err           error
}

// Filter narrows List results. A zero Limit means 20.
type Filter struct {
	Kind   Kind
	Status Status
	Limit  int
}
