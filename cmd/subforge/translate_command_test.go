package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"subforge/internal/history"
	"subforge/internal/jobslot"
	"subforge/internal/services"
	"subforge/internal/testsupport"
)

func listRecords(t *testing.T, env *cliTestEnv, kind history.Kind) []*history.Record {
	t.Helper()
	store := testsupport.MustOpenStore(t, env.cfg)
	records, err := store.List(context.Background(), history.Filter{Kind: kind})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	return records
}

func TestTranslateWritesOutputAndRecordsHistory(t *testing.T) {
	server := prefixingLLM(t)
	env := setupCLITestEnv(t, testsupport.WithLLMBaseURL(server.URL))
	input := env.path("in.srt")
	output := env.path("out", "zh.srt")
	testsupport.WriteText(t, input, testsupport.SampleSRT(3))

	stdout, _, err := runCLI(t, context.Background(), []string{
		"translate", "--input_file", input, "--output_file", output, "--batch_size", "2",
	}, env.configPath)
	if err != nil {
		t.Fatalf("translate returned error: %v", err)
	}
	for _, fragment := range []string{"Translating batch 1 of 2", "Translating batch 2 of 2", "Wrote " + output} {
		if !strings.Contains(stdout, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, stdout)
		}
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, line := range []string{"ZH Line 1", "ZH Line 2", "ZH Line 3", "00:00:04,000 --> 00:00:05,000"} {
		if !strings.Contains(string(content), line) {
			t.Fatalf("expected %q in translated file:\n%s", line, content)
		}
	}

	records := listRecords(t, env, history.KindTranslate)
	if len(records) != 1 {
		t.Fatalf("expected one history record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != history.StatusCompleted || rec.Units != 2 || rec.FallbackUnits != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !strings.Contains(rec.Detail, "Chinese") {
		t.Fatalf("expected target language in detail, got %q", rec.Detail)
	}
	if _, err := os.Stat(env.cfg.JobLogDir() + "/translate-" + rec.ID + ".log"); err != nil {
		t.Fatalf("expected job log: %v", err)
	}
}

func TestTranslateFallbackKeepsOriginalText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	env := setupCLITestEnv(t, testsupport.WithLLMBaseURL(server.URL))
	input := env.path("in.srt")
	output := env.path("out.srt")
	testsupport.WriteText(t, input, testsupport.SampleSRT(2))

	stdout, _, err := runCLI(t, context.Background(), []string{
		"translate", "--input_file", input, "--output_file", output,
	}, env.configPath)
	if err != nil {
		t.Fatalf("fallback should still succeed, got %v", err)
	}
	if !strings.Contains(stdout, "kept their original text") {
		t.Fatalf("expected fallback warning in output:\n%s", stdout)
	}
	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(content) != testsupport.SampleSRT(2) {
		t.Fatalf("expected original text preserved, got:\n%s", content)
	}
	records := listRecords(t, env, history.KindTranslate)
	if records[0].Status != history.StatusCompletedWithFallback || records[0].FallbackUnits != 1 {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestTranslateCancelledWritesNothing(t *testing.T) {
	server := prefixingLLM(t)
	env := setupCLITestEnv(t, testsupport.WithLLMBaseURL(server.URL))
	input := env.path("in.srt")
	output := env.path("out.srt")
	testsupport.WriteText(t, input, testsupport.SampleSRT(4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := runCLI(t, ctx, []string{"translate", "--input_file", input, "--output_file", output}, env.configPath)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if exitCode(err) == 0 {
		t.Fatal("cancelled translation must exit nonzero")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
	if records := listRecords(t, env, history.KindTranslate); records[0].Status != history.StatusCancelled {
		t.Fatalf("expected cancelled record, got %+v", records[0])
	}
}

func TestTranslateRejectsMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, context.Background(), []string{
		"translate", "--input_file", env.path("missing.srt"), "--output_file", env.path("out.srt"),
	}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if records := listRecords(t, env, history.KindTranslate); records[0].Status != history.StatusRejected {
		t.Fatalf("expected rejected record, got %+v", records[0])
	}
}

func TestTranslateRequiresFileFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, context.Background(), []string{"translate", "--input_file", env.path("in.srt")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "output_file") {
		t.Fatalf("expected required flag error, got %v", err)
	}
}

func TestTranslateBlockedByRunningJob(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.path("in.srt")
	testsupport.WriteText(t, input, testsupport.SampleSRT(1))

	slot, err := jobslot.Acquire(env.cfg.Paths.StateDir, string(history.KindTranslate))
	if err != nil {
		t.Fatalf("acquire slot: %v", err)
	}
	defer slot.Release()

	_, _, err = runCLI(t, context.Background(), []string{"translate", "--input_file", input, "--output_file", env.path("out.srt")}, env.configPath)
	if !errors.Is(err, services.ErrJobActive) {
		t.Fatalf("expected ErrJobActive, got %v", err)
	}
}
