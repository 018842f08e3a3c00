// Package jobslot serializes jobs of one kind across processes sharing a state
// directory. A slot is an advisory file lock at <state_dir>/<kind>.lock.
package jobslot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"subforge/internal/services"
)

// Slot is a held job slot.
type Slot struct {
	path string
	lock *flock.Flock
}

// Acquire takes the slot for kind without blocking. A slot held by another
// process yields an error marked services.ErrJobActive.
func Acquire(stateDir, kind string) (*Slot, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, services.Wrap(services.ErrValidation, "jobslot", "acquire", "job kind required", nil)
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("jobslot: create state dir: %w", err)
	}
	path := filepath.Join(stateDir, kind+".lock")
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("jobslot: acquire %s: %w", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrJobActive, "jobslot", "acquire",
			fmt.Sprintf("another %s job is already running (lock %s)", kind, path), nil)
	}
	return &Slot{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (s *Slot) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Release unlocks the slot. Releasing twice is a no-op.
func (s *Slot) Release() error {
	if s == nil || s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}
