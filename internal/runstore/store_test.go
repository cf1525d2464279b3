package runstore_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"storybuilder/internal/runstore"
	"storybuilder/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	version, err := store.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != "001_runs" {
		t.Fatalf("schema version = %q", version)
	}
	if store.Path() != cfg.RunStorePath() {
		t.Fatalf("store path = %q", store.Path())
	}

	// Reopening an initialized database must not reapply migrations.
	again, err := runstore.Open(cfg.RunStorePath())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "run-1", []string{"audio", "video", "subtitles"}, "Kreado")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.Status != runstore.StatusRunning {
		t.Fatalf("new run status = %q", run.Status)
	}

	okID, err := store.BeginStage(ctx, "run-1", "Kreado", "audio")
	if err != nil {
		t.Fatalf("BeginStage: %v", err)
	}
	if err := store.FinishStage(ctx, okID, runstore.StatusCompleted, "", ""); err != nil {
		t.Fatalf("FinishStage: %v", err)
	}
	badID, err := store.BeginStage(ctx, "run-1", "Kreado", "video")
	if err != nil {
		t.Fatalf("BeginStage: %v", err)
	}
	if err := store.FinishStage(ctx, badID, runstore.StatusInvalid, "validation", "page 2 narration is too short"); err != nil {
		t.Fatalf("FinishStage: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", runstore.StatusFailed, 1, 1); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != runstore.StatusFailed || got.StoriesTotal != 1 || got.StoriesFailed != 1 {
		t.Fatalf("unexpected run %+v", got)
	}
	if !slices.Equal(got.Stages, []string{"audio", "video", "subtitles"}) || got.StoryFilter != "Kreado" {
		t.Fatalf("unexpected run selection %+v", got)
	}
	if got.FinishedAt == nil || got.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %+v", got)
	}

	stages, err := store.StageRuns(ctx, "run-1")
	if err != nil {
		t.Fatalf("StageRuns: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("expected 2 stage rows, got %d", len(stages))
	}
	if stages[0].Stage != "audio" || stages[0].Status != runstore.StatusCompleted || stages[0].ErrorKind != "" {
		t.Fatalf("unexpected first stage %+v", stages[0])
	}
	if stages[1].Status != runstore.StatusInvalid || stages[1].ErrorKind != "validation" || stages[1].ErrorMessage == "" {
		t.Fatalf("unexpected second stage %+v", stages[1])
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	err := store.FinishRun(context.Background(), "missing", runstore.StatusCompleted, 0, 0)
	if !errors.Is(err, runstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, runstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.BeginRun(context.Background(), " ", nil, ""); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.BeginRun(ctx, id, []string{"audio"}, ""); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	all, err := store.ListRuns(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all runs, got %d (%v)", len(all), err)
	}
}

func TestAbandonRunning(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, "crashed", []string{"video"}, ""); err != nil {
		t.Fatal(err)
	}
	stageID, err := store.BeginStage(ctx, "crashed", "Kreado", "video")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.BeginRun(ctx, "done", []string{"video"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(ctx, "done", runstore.StatusCompleted, 1, 0); err != nil {
		t.Fatal(err)
	}

	n, err := store.AbandonRunning(ctx)
	if err != nil {
		t.Fatalf("AbandonRunning: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 abandoned run, got %d", n)
	}
	crashed, err := store.GetRun(ctx, "crashed")
	if err != nil {
		t.Fatal(err)
	}
	if crashed.Status != runstore.StatusFailed || crashed.FinishedAt == nil {
		t.Fatalf("unexpected crashed run %+v", crashed)
	}
	stages, err := store.StageRuns(ctx, "crashed")
	if err != nil || len(stages) != 1 || stages[0].ID != stageID {
		t.Fatalf("unexpected stages %+v (%v)", stages, err)
	}
	if stages[0].Status != runstore.StatusFailed || stages[0].ErrorKind != "interrupted" {
		t.Fatalf("unexpected abandoned stage %+v", stages[0])
	}
	done, err := store.GetRun(ctx, "done")
	if err != nil || done.Status != runstore.StatusCompleted {
		t.Fatalf("completed run changed: %+v (%v)", done, err)
	}
}

func TestPrune(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, "old", []string{"audio"}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.BeginStage(ctx, "old", "Kreado", "audio"); err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(ctx, "old", runstore.StatusCompleted, 1, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := store.BeginRun(ctx, "active", []string{"audio"}, ""); err != nil {
		t.Fatal(err)
	}

	if n, err := store.Prune(ctx, time.Now().Add(-time.Hour)); err != nil || n != 0 {
		t.Fatalf("expected nothing pruned, got %d (%v)", n, err)
	}
	n, err := store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned run, got %d", n)
	}
	stages, err := store.StageRuns(ctx, "old")
	if err != nil || len(stages) != 0 {
		t.Fatalf("expected pruned stage rows, got %+v (%v)", stages, err)
	}
	if _, err := store.GetRun(ctx, "active"); err != nil {
		t.Fatalf("running run was pruned: %v", err)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if runstore.StatusRunning.IsTerminal() {
		t.Fatal("running must not be terminal")
	}
	for _, s := range []runstore.Status{runstore.StatusCompleted, runstore.StatusFailed, runstore.StatusInvalid} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}
