package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := OpenCatalog(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func TestCatalogRecordLifecycle(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()

	rec := RunRecord{
		ID:         "run-1",
		Industry:   "Automotive",
		Market:     "Việt Nam",
		Mode:       string(ModePerQuestion),
		OutputPath: "output/research.json",
		StartedAt:  time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
	}
	if err := catalog.RecordStart(ctx, rec); err != nil {
		t.Fatalf("record start: %v", err)
	}

	got, err := catalog.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != RunStatusRunning {
		t.Fatalf("expected running status, got %q", got.Status)
	}
	if got.Industry != "Automotive" || got.OutputPath != "output/research.json" {
		t.Fatalf("row mismatch: %+v", got)
	}
	if got.FinishedAt.Valid {
		t.Fatalf("finished_at should be null while running: %+v", got.FinishedAt)
	}

	if err := catalog.RecordCompletion(ctx, "run-1", 7, 15); err != nil {
		t.Fatalf("record completion: %v", err)
	}
	got, err = catalog.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run after completion: %v", err)
	}
	if got.Status != RunStatusCompleted || got.Questions != 7 || got.APICalls != 15 {
		t.Fatalf("completion not recorded: %+v", got)
	}
	if !got.FinishedAt.Valid {
		t.Fatal("finished_at should be set after completion")
	}
}

func TestCatalogRecordFailure(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()

	if err := catalog.RecordStart(ctx, RunRecord{ID: "run-2", Industry: "Retail", Market: "Việt Nam", Mode: string(ModePerCategory)}); err != nil {
		t.Fatalf("record start: %v", err)
	}
	if err := catalog.RecordFailure(ctx, "run-2", "framework format: empty grid"); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	got, err := catalog.GetRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != RunStatusFailed || got.FailureCause != "framework format: empty grid" {
		t.Fatalf("failure not recorded: %+v", got)
	}
}

func TestCatalogListRunsNewestFirst(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		rec := RunRecord{ID: id, Industry: "X", Market: "Y", Mode: string(ModePerQuestion), StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := catalog.RecordStart(ctx, rec); err != nil {
			t.Fatalf("record start %s: %v", id, err)
		}
	}

	runs, err := catalog.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Fatalf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
}

func TestCatalogUpdateUnknownRun(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()
	if err := catalog.RecordCompletion(ctx, "ghost", 1, 1); err == nil {
		t.Fatal("expected error for unknown run id")
	}
	if _, err := catalog.GetRun(ctx, "ghost"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestOpenCatalogRequiresPath(t *testing.T) {
	if _, err := OpenCatalog("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}
