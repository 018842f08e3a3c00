package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"subforge/internal/history"
	"subforge/internal/testsupport"
)

func TestStartAndFinishRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec, err := store.Start(ctx, history.Record{
		Kind:       history.KindTranslate,
		InputPath:  "/media/in.srt",
		OutputPath: "/media/out.srt",
		Detail:     "zh via google/gemini-2.5-flash",
		Units:      23,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if rec.ID == "" || rec.Status != history.StatusRunning || rec.FinishedAt != nil {
		t.Fatalf("unexpected started record: %#v", rec)
	}
	if store.Path() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected store path %q", store.Path())
	}

	finished, err := store.Finish(ctx, rec.ID, history.Outcome{
		Status:        history.StatusCompletedWithFallback,
		Units:         3,
		FallbackUnits: 1,
	})
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if finished.Status != history.StatusCompletedWithFallback || finished.FallbackUnits != 1 || finished.Units != 3 {
		t.Fatalf("unexpected finished record: %#v", finished)
	}
	if finished.FinishedAt == nil || finished.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %#v", finished)
	}
	if finished.InputPath != "/media/in.srt" || finished.Detail == "" {
		t.Fatalf("start fields lost: %#v", finished)
	}

	if _, err := store.Finish(ctx, rec.ID, history.Outcome{Status: history.StatusFailed}); err == nil {
		t.Fatal("expected error finishing a record twice")
	}
}

func TestFinishRecordsErrorAndExitCode(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec := testsupport.StartRecord(t, store, history.KindBurn, "/media/movie.mkv")

	code := 234
	finished, err := store.Finish(context.Background(), rec.ID, history.Outcome{
		Status:   history.StatusFailed,
		ExitCode: &code,
		Err:      errors.New("ffmpeg exited with status 234"),
	})
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if finished.ExitCode == nil || *finished.ExitCode != 234 {
		t.Fatalf("unexpected exit code: %#v", finished.ExitCode)
	}
	if finished.ErrorMessage != "ffmpeg exited with status 234" {
		t.Fatalf("unexpected error message %q", finished.ErrorMessage)
	}
}

func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec := testsupport.StartRecord(t, store, history.KindExtract, "/media/a.mp4")

	if _, err := store.Finish(context.Background(), rec.ID, history.Outcome{Status: history.StatusRunning}); err == nil {
		t.Fatal("expected error for running status")
	}
}

func TestFinishUnknownID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := store.Finish(context.Background(), "missing", history.Outcome{Status: history.StatusCompleted})
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartRejectsUnknownKind(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Start(context.Background(), history.Record{Kind: "rip"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	kinds := []history.Kind{history.KindTranslate, history.KindBurn, history.KindTranslate, history.KindExtract}
	for i, kind := range kinds {
		if _, err := store.Start(ctx, history.Record{Kind: kind, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
	}

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 || all[0].Kind != history.KindExtract || all[3].Kind != history.KindTranslate {
		t.Fatalf("unexpected order: %v", kindsOf(all))
	}

	translations, err := store.List(ctx, history.Filter{Kind: history.KindTranslate, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(translations) != 1 || !translations[0].StartedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected filtered list: %#v", translations)
	}

	running, err := store.List(ctx, history.Filter{Status: history.StatusRunning})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(running) != 4 {
		t.Fatalf("expected 4 running records, got %d", len(running))
	}
}

func TestAbandonRunningOnlyTouchesKind(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	stale := testsupport.StartRecord(t, store, history.KindBurn, "/a.mkv")
	other := testsupport.StartRecord(t, store, history.KindTranslate, "/a.srt")

	n, err := store.AbandonRunning(ctx, history.KindBurn)
	if err != nil {
		t.Fatalf("AbandonRunning failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 abandoned record, got %d", n)
	}

	got, err := store.Get(ctx, stale.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != history.StatusFailed || got.ErrorMessage != history.AbandonedReason {
		t.Fatalf("unexpected abandoned record: %#v", got)
	}
	untouched, err := store.Get(ctx, other.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if untouched.Status != history.StatusRunning {
		t.Fatalf("expected other kind to stay running, got %s", untouched.Status)
	}
}

func TestPruneKeepsRunningAndRecent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -60)

	oldDone, err := store.Start(ctx, history.Record{Kind: history.KindExtract, StartedAt: old})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := store.Finish(ctx, oldDone.ID, history.Outcome{Status: history.StatusCompleted}); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	oldRunning, err := store.Start(ctx, history.Record{Kind: history.KindExtract, StartedAt: old})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	recent := testsupport.StartRecord(t, store, history.KindExtract, "/b.mp4")
	if _, err := store.Finish(ctx, recent.ID, history.Outcome{Status: history.StatusCancelled}); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	removed, err := store.Prune(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned record, got %d", removed)
	}
	if _, err := store.Get(ctx, oldDone.ID); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected old finished record pruned, got %v", err)
	}
	for _, id := range []string{oldRunning.ID, recent.ID} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Fatalf("expected %s kept: %v", id, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[history.StatusRunning] != 1 || stats[history.StatusCancelled] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	rec, err := store.Start(context.Background(), history.Record{Kind: history.KindTranslate})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), rec.ID); err != nil {
		t.Fatalf("expected record after reopen: %v", err)
	}
}

func TestParseStatusAndKind(t *testing.T) {
	if status, ok := history.ParseStatus(" Completed_With_Fallback "); !ok || status != history.StatusCompletedWithFallback {
		t.Fatalf("unexpected ParseStatus result %q %v", status, ok)
	}
	if _, ok := history.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if kind, ok := history.ParseKind("BURN"); !ok || kind != history.KindBurn {
		t.Fatalf("unexpected ParseKind result %q %v", kind, ok)
	}
	if history.StatusRunning.IsTerminal() || !history.StatusRejected.IsTerminal() {
		t.Fatal("unexpected IsTerminal results")
	}
}

func kindsOf(records []*history.Record) []history.Kind {
	kinds := make([]history.Kind, 0, len(records))
	for _, rec := range records {
		kinds = append(kinds, rec.Kind)
	}
	return kinds
}
