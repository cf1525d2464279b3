package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/gofrs/flock"

	"storybuilder/internal/config"
	"storybuilder/internal/logging"
	"storybuilder/internal/pipeline"
	"storybuilder/internal/runstore"
	"storybuilder/internal/scripture"
	"storybuilder/internal/services"
	"storybuilder/internal/stage"
	"storybuilder/internal/story"
	"storybuilder/internal/testsupport"
)

const twoStories = `{"storyCollection": [
  {"story": {"title": "Kreado", "ref_book": "GEN", "pages": [
    {"page": 1, "ref_start": "1:1", "ref_end": "1:2", "img_src": "k1.png",
     "img_initialrect": "0 0 1 1", "img_finalrect": "0.1 0.1 0.8 0.8"}
  ]}},
  {"story": {"title": "Noa", "ref_book": "GEN", "pages": [
    {"page": 1, "ref_start": "1:2", "ref_end": "1:2", "img_src": "n1.png",
     "img_initialrect": "0 0 1 1", "img_finalrect": "0 0 1 1"}
  ]}}
]}`

type call struct {
	stage string
	story string
}

type recordingHandler struct {
	name  string
	calls *[]call
	fail  map[string]error
}

func (h *recordingHandler) Prepare(context.Context, *story.Story) error { return nil }

func (h *recordingHandler) Execute(_ context.Context, st *story.Story) error {
	*h.calls = append(*h.calls, call{stage: h.name, story: st.Title})
	return h.fail[st.Title]
}

func (h *recordingHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(h.name) }

func newRunner(t *testing.T, cfg *config.Config, calls *[]call, fail map[string]map[string]error) *pipeline.Runner {
	t.Helper()
	r := pipeline.New(cfg, logging.NewNop())
	r.WithHandlerFactory(func(name string, _ *config.Config, _ *scripture.Library, _ *slog.Logger) (stage.Handler, error) {
		return &recordingHandler{name: name, calls: calls, fail: fail[name]}, nil
	})
	return r
}

func TestRunContinuesAfterStoryFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, cfg.Paths.StorySrc, twoStories)

	var calls []call
	boom := services.Wrap(services.ErrExternalTool, "video", "render page", "ffmpeg failed", errors.New("exit status 1"))
	r := newRunner(t, cfg, &calls, map[string]map[string]error{
		pipeline.StageVideo: {"Kreado": boom},
	})

	summary, err := r.Run(context.Background(), pipeline.Options{Stages: []string{"video", "subs"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []call{
		{pipeline.StageVideo, "Kreado"},
		{pipeline.StageVideo, "Noa"},
		{pipeline.StageSubtitles, "Noa"},
	}
	if !slices.Equal(calls, want) {
		t.Fatalf("calls = %+v, want %+v", calls, want)
	}
	if summary.Failed() != 1 || len(summary.Results) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Results[0].Stage != pipeline.StageVideo || !errors.Is(summary.Results[0].Err, boom) {
		t.Fatalf("unexpected failure result %+v", summary.Results[0])
	}

	store := testsupport.MustOpenStore(t, cfg)
	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != runstore.StatusFailed || run.StoriesTotal != 2 || run.StoriesFailed != 1 {
		t.Fatalf("unexpected run row %+v", run)
	}
	if !slices.Equal(run.Stages, []string{pipeline.StageVideo, pipeline.StageSubtitles}) {
		t.Fatalf("unexpected stages %v", run.Stages)
	}
	rows, err := store.StageRuns(context.Background(), summary.RunID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("unexpected stage rows %+v (%v)", rows, err)
	}
	if rows[0].Status != runstore.StatusFailed || rows[1].Status != runstore.StatusCompleted {
		t.Fatalf("unexpected stage statuses %+v", rows)
	}
}

func TestRunFiltersStory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, cfg.Paths.StorySrc, twoStories)

	var calls []call
	r := newRunner(t, cfg, &calls, nil)
	summary, err := r.Run(context.Background(), pipeline.Options{Stages: []string{"video"}, Story: "noa"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(calls) != 1 || calls[0].story != "Noa" || summary.Failed() != 0 {
		t.Fatalf("unexpected calls %+v summary %+v", calls, summary)
	}

	if _, err := r.Run(context.Background(), pipeline.Options{Story: "Eliro"}); !errors.Is(err, pipeline.ErrStoryNotFound) {
		t.Fatalf("expected ErrStoryNotFound, got %v", err)
	}
}

func TestRunMarksStoriesWithUnconfiguredBookInvalid(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, cfg.Paths.StorySrc, twoStories)

	var calls []call
	r := newRunner(t, cfg, &calls, nil)
	summary, err := r.Run(context.Background(), pipeline.Options{Stages: []string{"audio"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no stage calls, got %+v", calls)
	}
	if summary.Failed() != 2 {
		t.Fatalf("expected both stories invalid, got %+v", summary)
	}
	if !errors.Is(summary.Results[0].Err, services.ErrConfiguration) || summary.Results[0].Stage != "validate" {
		t.Fatalf("unexpected result %+v", summary.Results[0])
	}

	store := testsupport.MustOpenStore(t, cfg)
	rows, err := store.StageRuns(context.Background(), summary.RunID)
	if err != nil || len(rows) != 2 || rows[0].Status != runstore.StatusInvalid {
		t.Fatalf("unexpected stage rows %+v (%v)", rows, err)
	}
}

func TestRunLoadsReferencedBooks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBook("GEN", 1))
	testsupport.WriteText(t, cfg.Paths.StorySrc, twoStories)
	book := cfg.ScriptureBooks()[0]
	testsupport.WriteText(t, book.TimingPath(1), "0.0\t1.5\t1\n1.5\t3.0\t2\n")
	testsupport.WriteText(t, book.TextPath, "\\c 1\n\\v 1 En la komenco.\n\\v 2 Kaj la tero estis senforma.\n")

	var seen *scripture.Library
	r := pipeline.New(cfg, logging.NewNop())
	r.WithHandlerFactory(func(name string, _ *config.Config, lib *scripture.Library, _ *slog.Logger) (stage.Handler, error) {
		seen = lib
		return &recordingHandler{name: name, calls: new([]call)}, nil
	})
	summary, err := r.Run(context.Background(), pipeline.Options{Stages: []string{"audio", "subtitles"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed() != 0 {
		t.Fatalf("unexpected failures %+v", summary.Results)
	}
	spans, err := seen.AudioSpans("GEN", scripture.Reference{Chapter: 1, VerseStart: 1, VerseEnd: 2})
	if err != nil || len(spans) != 2 || spans[1].EndMS != 3000 {
		t.Fatalf("unexpected spans %+v (%v)", spans, err)
	}
	text, err := seen.Text("GEN", scripture.Reference{Chapter: 1, VerseStart: 2, VerseEnd: 2})
	if err != nil || text != "Kaj la tero estis senforma." {
		t.Fatalf("unexpected text %q (%v)", text, err)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, cfg.Paths.StorySrc, twoStories)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	r := newRunner(t, cfg, new([]call), nil)
	if _, err := r.Run(context.Background(), pipeline.Options{}); !errors.Is(err, pipeline.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestParseStages(t *testing.T) {
	got, err := pipeline.ParseStages([]string{"subs", "AUDIO"})
	if err != nil {
		t.Fatalf("ParseStages: %v", err)
	}
	if !slices.Equal(got, []string{pipeline.StageAudio, pipeline.StageSubtitles}) {
		t.Fatalf("ParseStages = %v", got)
	}
	all, _ := pipeline.ParseStages(nil)
	if !slices.Equal(all, pipeline.AllStages) {
		t.Fatalf("default stages = %v", all)
	}
	if _, err := pipeline.ParseStages([]string{"mux"}); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestRunInvalidCollection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, cfg.Paths.StorySrc, "{not json")
	r := newRunner(t, cfg, new([]call), nil)
	if _, err := r.Run(context.Background(), pipeline.Options{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunSkipsStoryWithUnparsableRect(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, cfg.Paths.StorySrc, `{"storyCollection": [
  {"story": {"title": "Kreado", "ref_book": "GEN", "pages": [
    {"page": 1, "ref_start": "1:1", "ref_end": "1:2", "img_src": "k1.png",
     "img_initialrect": "0 0 1 1", "img_finalrect": "0 0 1 1"}
  ]}},
  {"story": {"title": "Rompita", "ref_book": "GEN", "pages": [
    {"page": 1, "ref_start": "1:1", "ref_end": "1:1", "img_src": "r1.png",
     "img_initialrect": "0 0 1", "img_finalrect": "0 0 1 1"}
  ]}}
]}`)

	var calls []call
	r := newRunner(t, cfg, &calls, nil)
	summary, err := r.Run(context.Background(), pipeline.Options{Stages: []string{"video"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(calls, []call{{pipeline.StageVideo, "Kreado"}}) {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if summary.Failed() != 1 || len(summary.Results) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	bad := summary.Results[1]
	if bad.Title != "Rompita" || bad.Stage != "validate" || !errors.Is(bad.Err, services.ErrValidation) {
		t.Fatalf("unexpected result %+v", bad)
	}
}
