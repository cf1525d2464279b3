package subtitles

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"storybuilder/internal/config"
	"storybuilder/internal/logging"
	"storybuilder/internal/media/ffprobe"
	"storybuilder/internal/scripture"
	"storybuilder/internal/services"
	"storybuilder/internal/story"
	"storybuilder/internal/testsupport"
)

func newTestStory() *story.Story {
	return &story.Story{
		Title:   "Kreado",
		RefBook: "GEN",
		Pages: []story.Page{
			{Number: 1, RefStart: "1:1", RefEnd: "1:1", Image: "p1.png"},
			{Number: 2, RefStart: "1:2", RefEnd: "1:2", Image: "p2.png"},
		},
	}
}

func newTestLibrary() *scripture.Library {
	return scripture.NewLibrary(&scripture.BookTables{
		Book: scripture.Book{ID: "GEN", NumChapters: 1},
		Text: scripture.VerseTextTable{{"Hello there.", "How are you?"}},
	})
}

func fixedProber(duration string) ffprobe.Prober {
	return func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: duration}}, nil
	}
}

func seedRenderedStory(t *testing.T, cfg *config.Config, st *story.Story, durations []int) {
	t.Helper()
	layout := story.NewLayout(cfg.Paths)
	if err := os.MkdirAll(layout.TimingTemp, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := story.WritePageDurations(layout.PageTimings(st), durations); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, layout.Movie(st), 16)
}

func TestStageWritesInterpolatedSRT(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := newTestStory()
	seedRenderedStory(t, cfg, st, []int{1000, 2000})

	s := NewStage(cfg, newTestLibrary(), logging.NewNop())
	s.WithProber(fixedProber("3.400"))

	ctx := context.Background()
	if err := s.Prepare(ctx, st); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := s.Execute(ctx, st); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(story.NewLayout(cfg.Paths).Subtitles(st))
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	want := "1\n00:00:00,100 --> 00:00:01,100\nHello there.\n\n" +
		"2\n00:00:01,200 --> 00:00:03,200\nHow are you?\n\n"
	if string(data) != want {
		t.Fatalf("srt = %q, want %q", data, want)
	}
}

func TestStageBurnsSubtitlesWhenHardcoded(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHardcodedSubtitles())
	st := newTestStory()
	seedRenderedStory(t, cfg, st, []int{1000, 2000})

	var calls [][]string
	s := NewStage(cfg, newTestLibrary(), logging.NewNop())
	s.WithProber(fixedProber("3.400"))
	s.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		calls = append(calls, args)
		return nil
	})

	if err := s.Execute(context.Background(), st); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one burn invocation, got %d", len(calls))
	}
	layout := story.NewLayout(cfg.Paths)
	joined := strings.Join(calls[0], " ")
	if !strings.Contains(joined, layout.Subbed(st)) || !strings.Contains(joined, "subtitles="+layout.Subtitles(st)) {
		t.Fatalf("unexpected burn args %q", joined)
	}
}

func TestStageDisabledSkips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Subtitles.Enabled = false
	st := newTestStory()

	s := NewStage(cfg, newTestLibrary(), logging.NewNop())
	s.WithProber(func(context.Context, string) (ffprobe.Result, error) {
		t.Fatal("prober should not run when subtitles are disabled")
		return ffprobe.Result{}, nil
	})
	if err := s.Prepare(context.Background(), st); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := s.Execute(context.Background(), st); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(story.NewLayout(cfg.Paths).Subtitles(st)); !os.IsNotExist(err) {
		t.Fatalf("expected no srt output, stat err=%v", err)
	}
}

func TestStagePrepareRequiresVideoOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := NewStage(cfg, newTestLibrary(), logging.NewNop())
	err := s.Prepare(context.Background(), newTestStory())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStageRejectsDurationCountMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := newTestStory()
	seedRenderedStory(t, cfg, st, []int{1000})

	s := NewStage(cfg, newTestLibrary(), logging.NewNop())
	s.WithProber(fixedProber("3.400"))
	err := s.Execute(context.Background(), st)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestStageAlignmentMismatchIsExternalToolFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSubtitleMethod(config.SubtitleMethodAeneas))
	st := newTestStory()
	seedRenderedStory(t, cfg, st, []int{1000, 2000})

	aligner := &fakeAligner{fragments: []Fragment{
		{BeginMS: 0, EndMS: 3400, Lines: []string{"Hello there. How are you?"}},
	}}
	s := NewStage(cfg, newTestLibrary(), logging.NewNop())
	s.WithProber(fixedProber("3.400"))
	s.WithAligner(aligner)

	err := s.Execute(context.Background(), st)
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, ErrAlignmentMismatch) {
		t.Fatalf("expected external tool alignment mismatch, got %v", err)
	}
	if aligner.gotAudio != story.NewLayout(cfg.Paths).Movie(st) {
		t.Fatalf("aligner audio = %q", aligner.gotAudio)
	}
	if len(aligner.gotLines) != 2 {
		t.Fatalf("expected one line per chunk, got %q", aligner.gotLines)
	}
	if _, err := os.Stat(story.NewLayout(cfg.Paths).Subtitles(st)); !os.IsNotExist(err) {
		t.Fatalf("expected no srt after mismatch, stat err=%v", err)
	}
}
