package deps

import (
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank status %#v", results[2])
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transcode.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	cfg.Extraction.UVXBinary = "/opt/uv/uvx"

	reqs := Requirements(&cfg)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != cfg.Transcode.FFmpegBinary || reqs[0].Optional {
		t.Fatalf("unexpected ffmpeg requirement %#v", reqs[0])
	}
	if reqs[1].Command != cfg.Extraction.UVXBinary || !reqs[1].Optional {
		t.Fatalf("unexpected uvx requirement %#v", reqs[1])
	}
	if got := Requirements(nil); got[0].Command != "ffmpeg" || got[1].Command != "uvx" {
		t.Fatalf("unexpected defaults %#v", got)
	}
}
