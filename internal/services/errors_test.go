package services_test

import (
	"errors"
	"strings"
	"testing"

	"subforge/internal/history"
	"subforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcode", "ffmpeg", "exited", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcode", "ffmpeg", "exited"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "transcode", "build", "video path is empty", nil)
	if status := services.FailureStatus(validationErr); status != history.StatusRejected {
		t.Fatalf("expected rejected for validation error, got %s", status)
	}

	missing := services.Wrap(services.ErrToolUnavailable, "transcode", "preflight", "ffmpeg not found", nil)
	if status := services.FailureStatus(missing); status != history.StatusRejected {
		t.Fatalf("expected rejected for missing tool, got %s", status)
	}

	transientErr := services.Wrap(services.ErrTransient, "llm", "translate", "retries exhausted", errors.New("503"))
	if status := services.FailureStatus(transientErr); status != history.StatusFailed {
		t.Fatalf("expected failed for transient error, got %s", status)
	}

	if status := services.FailureStatus(nil); status != history.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}
