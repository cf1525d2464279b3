package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"storybuilder/internal/config"
	"storybuilder/internal/logging"
	"storybuilder/internal/media/ffprobe"
	"storybuilder/internal/services"
	"storybuilder/internal/story"
	"storybuilder/internal/testsupport"
)

func newVideoFixture(t *testing.T) (*config.Config, *story.Story) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := &story.Story{
		Title:   "Noah's Ark",
		RefBook: "GEN",
		Pages: []story.Page{
			{Number: 1, RefStart: "6:9", RefEnd: "6:10", Image: "ark1.png",
				InitialRect: story.Rect{Width: 1, Size: 1}, FinalRect: story.Rect{X: 0.1, Y: 0.1, Width: 0.8, Size: 0.8}},
			{Number: 2, RefStart: "6:11", RefEnd: "6:11", Image: "ark2.png",
				InitialRect: story.Rect{Width: 1, Size: 1}, FinalRect: story.Rect{Width: 1, Size: 1}},
		},
	}
	layout := story.NewLayout(cfg.Paths)
	for _, page := range st.Pages {
		testsupport.WriteFile(t, layout.PageImage(page), 32)
		testsupport.WriteFile(t, layout.PageAudio(st, page), 32)
	}
	return cfg, st
}

// resultsByPath answers probes from a fixed table keyed by file name.
func resultsByPath(t *testing.T, table map[string]ffprobe.Result) ffprobe.Prober {
	return func(_ context.Context, path string) (ffprobe.Result, error) {
		r, ok := table[filepath.Base(path)]
		if !ok {
			t.Fatalf("unexpected probe of %s", path)
		}
		r.Format.Filename = path
		return r, nil
	}
}

// durationsByPath answers probes with container durations only.
func durationsByPath(t *testing.T, table map[string]string) ffprobe.Prober {
	results := make(map[string]ffprobe.Result, len(table))
	for name, d := range table {
		results[name] = ffprobe.Result{Format: ffprobe.Format{Duration: d}}
	}
	return resultsByPath(t, results)
}

// renderedPage mimics a zoompan page whose video track outlasts its audio.
func renderedPage(video, audio string) ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", Duration: video},
			{Index: 1, CodecType: "audio", Duration: audio},
		},
		Format: ffprobe.Format{Duration: video},
	}
}

func TestStageRendersPagesAndMovie(t *testing.T) {
	cfg, st := newVideoFixture(t)
	layout := story.NewLayout(cfg.Paths)

	stale := filepath.Join(layout.VideoTemp, "99.mp4")
	testsupport.WriteFile(t, stale, 8)

	var calls [][]string
	s := NewStage(cfg, logging.NewNop())
	s.WithProber(resultsByPath(t, map[string]ffprobe.Result{
		"Noahs_Ark_01.mp3": {Format: ffprobe.Format{Duration: "1.5"}},
		"Noahs_Ark_02.mp3": {Format: ffprobe.Format{Duration: "2.25"}},
		"01.mp4":           renderedPage("1.533333", "1.5"),
		"02.mp4":           renderedPage("2.266667", "2.25"),
	}))
	s.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != "ffmpeg" {
			t.Fatalf("unexpected binary %q", name)
		}
		calls = append(calls, args)
		testsupport.WriteFile(t, outputArg(args), 16)
		return nil
	})

	ctx := context.Background()
	if err := s.Prepare(ctx, st); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := s.Execute(ctx, st); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale fragment cleared, stat err=%v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected two page renders and one concat, got %d calls", len(calls))
	}
	if !slices.Contains(calls[0], layout.PageVideo(st.Pages[0])) || !slices.Contains(calls[1], layout.PageVideo(st.Pages[1])) {
		t.Fatalf("unexpected page outputs %q / %q", calls[0], calls[1])
	}
	concat := strings.Join(calls[2], " ")
	if !strings.Contains(concat, "-f concat") || outputArg(calls[2]) != layout.Movie(st) {
		t.Fatalf("unexpected concat args %q", concat)
	}

	list, err := os.ReadFile(layout.PageList())
	if err != nil {
		t.Fatal(err)
	}
	if string(list) != "file '01.mp4'\nfile '02.mp4'" {
		t.Fatalf("page list = %q", list)
	}

	durations, err := story.ReadPageDurations(layout.PageTimings(st))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(durations, []int{1500, 2250}) {
		t.Fatalf("durations = %v", durations)
	}
	if filepath.Base(layout.Movie(st)) != "Noahs_Ark.mp4" {
		t.Fatalf("movie name = %q", layout.Movie(st))
	}
}

func TestStageRejectsTooShortNarration(t *testing.T) {
	cfg, st := newVideoFixture(t)
	s := NewStage(cfg, logging.NewNop())
	s.WithProber(durationsByPath(t, map[string]string{"Noahs_Ark_01.mp3": "0.02"}))
	s.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("ffmpeg should not run")
		return nil
	})
	if err := s.Prepare(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	err := s.Execute(context.Background(), st)
	if !errors.Is(err, services.ErrValidation) || !errors.Is(err, ErrNoFrames) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestStageRenderFailure(t *testing.T) {
	cfg, st := newVideoFixture(t)
	boom := errors.New("exit status 1")
	s := NewStage(cfg, logging.NewNop())
	s.WithProber(durationsByPath(t, map[string]string{"Noahs_Ark_01.mp3": "1.5"}))
	s.WithCommandRunner(func(context.Context, string, ...string) error { return boom })
	if err := s.Prepare(context.Background(), st); err != nil {
		t.Fatal(err)
	}
	if err := s.Execute(context.Background(), st); !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, boom) {
		t.Fatalf("expected external tool failure, got %v", err)
	}
	if _, err := os.Stat(story.NewLayout(cfg.Paths).PageTimings(st)); !os.IsNotExist(err) {
		t.Fatalf("expected no page timing file, stat err=%v", err)
	}
}

func TestStagePrepareRequiresInputs(t *testing.T) {
	cfg, st := newVideoFixture(t)
	if err := os.Remove(story.NewLayout(cfg.Paths).PageImage(st.Pages[1])); err != nil {
		t.Fatal(err)
	}
	s := NewStage(cfg, logging.NewNop())
	if err := s.Prepare(context.Background(), st); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// outputArg returns the output path from compiled ffmpeg args, which may be
// followed by global flags such as -y.
func outputArg(args []string) string {
	for i := len(args) - 1; i >= 0; i-- {
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	return ""
}
