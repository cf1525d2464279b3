package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"storybuilder/internal/config"
	"storybuilder/internal/fileutil"
	"storybuilder/internal/logging"
	"storybuilder/internal/media/ffmpeg"
	"storybuilder/internal/scripture"
	"storybuilder/internal/services"
	"storybuilder/internal/stage"
	"storybuilder/internal/story"
	"storybuilder/internal/textutil"
)

const stageName = "audio"

// Stage writes one narration clip per page.
type Stage struct {
	cfg     *config.Config
	layout  story.Layout
	library *scripture.Library
	run     ffmpeg.Runner
	logger  *slog.Logger
}

// NewStage constructs the audio stage. The library must have timing tables loaded.
func NewStage(cfg *config.Config, library *scripture.Library, logger *slog.Logger) *Stage {
	s := &Stage{
		cfg:     cfg,
		layout:  story.NewLayout(cfg.Paths),
		library: library,
		run:     ffmpeg.Run,
	}
	s.SetLogger(logger)
	return s
}

// SetLogger routes stage logs into the story-scoped logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "audio-stage")
}

// WithCommandRunner replaces the ffmpeg runner.
func (s *Stage) WithCommandRunner(r ffmpeg.Runner) {
	if s != nil && r != nil {
		s.run = r
	}
}

// Prepare resolves every page against the timing table and checks that the
// chapter recordings exist.
func (s *Stage) Prepare(ctx context.Context, st *story.Story) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Audio stage is not configured", nil)
	}
	seen := make(map[string]struct{})
	for _, page := range st.Pages {
		spans, err := s.pageSpans(st, page)
		if err != nil {
			return err
		}
		for _, span := range spans {
			if _, ok := seen[span.Source]; ok {
				continue
			}
			seen[span.Source] = struct{}{}
			if _, err := os.Stat(span.Source); err != nil {
				return services.Wrap(services.ErrNotFound, stageName, "prepare",
					fmt.Sprintf("Chapter recording %s is missing", span.Source), err)
			}
		}
	}
	if err := os.MkdirAll(s.layout.AudioTemp, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Failed to create audio_temp", err)
	}
	return nil
}

// Execute cuts and joins the verse spans of every page.
func (s *Stage) Execute(ctx context.Context, st *story.Story) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "execute", "Audio stage is not configured", nil)
	}
	started := time.Now()
	for _, page := range st.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		spans, err := s.pageSpans(st, page)
		if err != nil {
			return err
		}
		target := s.layout.PageAudio(st, page)
		if err := s.renderPage(ctx, st, spans, target); err != nil {
			return err
		}
		s.logger.Info("page audio written",
			logging.String(logging.FieldEventType, "page_audio_written"),
			logging.Page(page.Number),
			logging.Int("verses", len(spans)),
			logging.Millis("duration", totalDuration(spans)),
			logging.String("output_file", target),
		)
	}
	s.logger.Debug("audio stage finished",
		logging.Int("pages", len(st.Pages)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (s *Stage) pageSpans(st *story.Story, page story.Page) ([]scripture.AudioSpan, error) {
	ref, err := stage.PageReference(stageName, page)
	if err != nil {
		return nil, err
	}
	spans, err := s.library.AudioSpans(st.RefBook, ref)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "resolve audio",
			fmt.Sprintf("Page %d audio %s %s unavailable", page.Number, st.RefBook, ref), err)
	}
	if len(spans) == 0 {
		return nil, services.Wrap(services.ErrValidation, stageName, "resolve audio",
			fmt.Sprintf("Page %d range %s covers no verses", page.Number, ref), nil)
	}
	return spans, nil
}

func (s *Stage) renderPage(ctx context.Context, st *story.Story, spans []scripture.AudioSpan, target string) error {
	workDir, err := os.MkdirTemp(s.layout.AudioTemp, "."+textutil.SanitizeToken(st.Title)+"-cuts-")
	if err != nil {
		return services.Wrap(services.ErrTransient, stageName, "cut verses", "Failed to create scratch directory", err)
	}
	defer os.RemoveAll(workDir)

	parts := make([]string, len(spans))
	for i, span := range spans {
		parts[i] = filepath.Join(workDir, fmt.Sprintf("%03d.mp3", i+1))
		if err := ffmpeg.Exec(ctx, s.run, s.cfg.FFmpegBinary(), cutCommand(span, parts[i])); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "cut verses",
				fmt.Sprintf("ffmpeg failed to cut %s", span.Source), err)
		}
	}
	if len(parts) == 1 {
		if err := fileutil.CopyFile(parts[0], target); err != nil {
			return services.Wrap(services.ErrTransient, stageName, "write page audio", "Failed to copy verse clip", err)
		}
		return nil
	}
	if err := JoinMP3(target, parts); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "join verses", "Failed to join verse clips", err)
	}
	return nil
}

func cutCommand(span scripture.AudioSpan, output string) *ffmpeggo.Stream {
	return ffmpeggo.Input(span.Source, ffmpeggo.KwArgs{
		"ss": ffmpeg.Seconds(span.StartMS),
		"to": ffmpeg.Seconds(span.EndMS),
	}).Output(output, ffmpeggo.KwArgs{"c:a": "libmp3lame"}).OverWriteOutput()
}

func totalDuration(spans []scripture.AudioSpan) int {
	total := 0
	for _, span := range spans {
		total += span.DurationMS()
	}
	return total
}

// HealthCheck reports whether ffmpeg is installed.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.cfg == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	return stage.BinaryHealth(stageName, s.cfg.FFmpegBinary())
}
