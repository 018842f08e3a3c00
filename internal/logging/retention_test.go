package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"subforge/internal/logging"
)

func TestCleanupOldLogsRemovesExpiredMatches(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "translate-old.log")
	fresh := filepath.Join(dir, "translate-new.log")
	other := filepath.Join(dir, "notes.txt")
	keep := filepath.Join(dir, "burn-active.log")
	for _, path := range []string{old, fresh, other, keep} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, other, keep} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "*.log",
		Exclude: []string{keep},
	})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", old)
	}
	for _, path := range []string{fresh, other, keep} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	if removed := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: t.TempDir()}); removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
}
