package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func healthServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckLLM(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		status int
		body   string
		want   bool
	}{
		{"healthy", "key", http.StatusOK, `{"ok":true}`, true},
		{"rejected key", "key", http.StatusUnauthorized, "", false},
		{"unexpected payload", "key", http.StatusOK, `{"ok":false}`, false},
		{"missing key", "", http.StatusOK, `{"ok":true}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := healthServer(t, tt.status, tt.body)
			result := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: tt.apiKey, BaseURL: srv.URL, Model: "demo"})
			if result.Passed != tt.want {
				t.Fatalf("Passed = %v, want %v (detail %q)", result.Passed, tt.want, result.Detail)
			}
			if result.Detail == "" {
				t.Fatal("expected detail")
			}
		})
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectoriesAndTools(t *testing.T) {
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "ffmpeg"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	results := RunAll(context.Background(), &cfg, Options{})
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, name := range []string{"State directory", "Log directory", "FFmpeg"} {
		if r, ok := names[name]; !ok || !r.Passed {
			t.Fatalf("expected %s to pass, got %+v", name, r)
		}
	}
	if r := names["uvx"]; r.Passed || !r.Optional {
		t.Fatalf("expected optional failing uvx check, got %+v", r)
	}
	if _, ok := names["Translation LLM"]; ok {
		t.Fatal("LLM check should only run when requested")
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no required failures, got %v", failed)
	}
}

func TestRunAll_LLMWhenRequested(t *testing.T) {
	srv := healthServer(t, http.StatusOK, `{"ok":true}`)
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing")
	cfg.LLM.APIKey = "key"
	cfg.LLM.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg, Options{CheckLLM: true})
	last := results[len(results)-1]
	if last.Name != "Translation LLM" || !last.Passed {
		t.Fatalf("expected passing LLM check last, got %+v", last)
	}
	failed := Failed(results)
	if len(failed) == 0 || failed[0] != "Log directory" {
		t.Fatalf("expected missing log directory to fail, got %v", failed)
	}
}
