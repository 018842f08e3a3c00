package translation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"subforge/internal/subtitles"
)

// State is the lifecycle position of a translation job.
type State string

const (
	StateIdle                  State = "idle"
	StateRunning               State = "running"
	StateCompleted             State = "completed"
	StateCompletedWithFallback State = "completed_with_fallback"
	StateCancelled             State = "cancelled"
	StateFailed                State = "failed"
)

// IsTerminal reports whether no further transitions can happen.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCompletedWithFallback, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// Job is one request to translate a cue set. Only the Runner changes its state.
type Job struct {
	ID             string
	Cues           subtitles.CueSet
	TargetLanguage string
	BatchSize      int

	mu    sync.Mutex
	state State
}

// NewJob creates an idle job with a fresh id.
func NewJob(cues subtitles.CueSet, targetLanguage string, batchSize int) *Job {
	return &Job{
		ID:             uuid.NewString(),
		Cues:           cues,
		TargetLanguage: targetLanguage,
		BatchSize:      batchSize,
		state:          StateIdle,
	}
}

// State returns the current job state. Safe to call while the job runs.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == "" {
		return StateIdle
	}
	return j.state
}

func (j *Job) setState(state State) {
	j.mu.Lock()
	j.state = state
	j.mu.Unlock()
}

// BatchError records why a batch fell back to its original text.
type BatchError struct {
	// Batch is the 1-based batch number.
	Batch int
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch %d: %v", e.Batch, e.Err)
}

func (e BatchError) Unwrap() error {
	return e.Err
}

// Result is what a run produced. Cues is nil unless the job completed.
type Result struct {
	JobID     string
	State     State
	Cues      subtitles.CueSet
	Batches   int
	Processed int
	Fallbacks []int
	Errors    []BatchError
}
