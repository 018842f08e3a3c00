package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// JobLog is a per-job JSON log file teed off the main logger.
type JobLog struct {
	Path string
	file *os.File
}

// OpenJobLog creates <dir>/<kind>-<id>.log and returns a logger that writes to
// both base and the file at debug level.
func OpenJobLog(base *slog.Logger, dir, kind, jobID string) (*slog.Logger, *JobLog, error) {
	kind = strings.TrimSpace(kind)
	jobID = strings.TrimSpace(jobID)
	if kind == "" || jobID == "" {
		return nil, nil, fmt.Errorf("job log: kind and id required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("job log: create dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.log", kind, jobID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("job log: open %s: %w", path, err)
	}
	handler := newJSONHandler(file, slog.LevelDebug, false)
	return TeeLogger(base, handler), &JobLog{Path: path, file: file}, nil
}

// Close flushes and closes the job log file.
func (j *JobLog) Close() error {
	if j == nil || j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
