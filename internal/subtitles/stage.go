package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"storybuilder/internal/config"
	"storybuilder/internal/logging"
	"storybuilder/internal/media/ffmpeg"
	"storybuilder/internal/media/ffprobe"
	"storybuilder/internal/scripture"
	"storybuilder/internal/services"
	"storybuilder/internal/stage"
	"storybuilder/internal/story"
)

const stageName = "subtitles"

// Stage builds the subtitle timeline for a rendered story, writes the SRT, and
// optionally burns it into a copy of the movie.
type Stage struct {
	cfg     *config.Config
	layout  story.Layout
	library *scripture.Library
	probe   ffprobe.Prober
	aligner Aligner
	burner  *Burner
	logger  *slog.Logger
}

// NewStage constructs the subtitle stage. The library must have text tables loaded.
func NewStage(cfg *config.Config, library *scripture.Library, logger *slog.Logger) *Stage {
	s := &Stage{
		cfg:     cfg,
		layout:  story.NewLayout(cfg.Paths),
		library: library,
		probe:   ffprobe.NewProber(cfg.FFprobeBinary()),
		burner:  NewBurner(cfg.FFmpegBinary(), cfg.Video.VideoCodec, logger),
	}
	if cfg.UsesAligner() {
		s.aligner = NewAeneasAligner(cfg.Subtitles.AeneasPython, cfg.Subtitles.AeneasLanguage, cfg.FFmpegBinary(), cfg.Paths.SubsTemp, logger)
	}
	s.SetLogger(logger)
	return s
}

// SetLogger routes stage logs into the story-scoped logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "subtitle-stage")
	s.burner.SetLogger(logger)
	if aware, ok := s.aligner.(stage.LoggerAware); ok {
		aware.SetLogger(logger)
	}
}

// WithProber replaces the media prober used for the movie duration.
func (s *Stage) WithProber(p ffprobe.Prober) {
	if s != nil && p != nil {
		s.probe = p
	}
}

// WithAligner replaces the forced aligner.
func (s *Stage) WithAligner(a Aligner) {
	if s != nil && a != nil {
		s.aligner = a
	}
}

// WithCommandRunner injects a command runner into the burner and the aeneas aligner.
func (s *Stage) WithCommandRunner(r ffmpeg.Runner) {
	if s == nil {
		return
	}
	s.burner.WithCommandRunner(r)
	if a, ok := s.aligner.(*AeneasAligner); ok {
		a.WithCommandRunner(r)
	}
}

// Prepare checks that the video stage left its outputs behind.
func (s *Stage) Prepare(ctx context.Context, st *story.Story) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Subtitle stage is not configured", nil)
	}
	if !s.cfg.Subtitles.Enabled {
		return nil
	}
	if _, err := ParseMethod(s.cfg.Subtitles.Method); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Unsupported subtitles.method", err)
	}
	for _, path := range []string{s.layout.PageTimings(st), s.layout.Movie(st)} {
		if _, err := os.Stat(path); err != nil {
			return services.Wrap(services.ErrNotFound, stageName, "prepare",
				fmt.Sprintf("Missing %s; run the video stage first", path), err)
		}
	}
	return nil
}

// Execute writes <subs_out>/<stem>.srt and, when configured, the burned-in copy.
func (s *Stage) Execute(ctx context.Context, st *story.Story) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "execute", "Subtitle stage is not configured", nil)
	}
	if !s.cfg.Subtitles.Enabled {
		s.logger.Info("subtitles disabled; skipping",
			logging.String(logging.FieldEventType, "stage_skipped"))
		return nil
	}
	started := time.Now()

	method, err := ParseMethod(s.cfg.Subtitles.Method)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "execute", "Unsupported subtitles.method", err)
	}

	durations, err := story.ReadPageDurations(s.layout.PageTimings(st))
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "read page durations", "Page timing file is unreadable; rerun the video stage", err)
	}
	if len(durations) != len(st.Pages) {
		return services.Wrap(services.ErrValidation, stageName, "read page durations",
			fmt.Sprintf("Page timing file lists %d pages but the story has %d; rerun the video stage", len(durations), len(st.Pages)), nil)
	}

	movie := s.layout.Movie(st)
	totalMS, err := s.probe.AudioDurationMS(ctx, movie)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "probe movie", "Rendered movie could not be measured", err)
	}

	pages := make([]PageText, len(st.Pages))
	for i, page := range st.Pages {
		ref, err := stage.PageReference(stageName, page)
		if err != nil {
			return err
		}
		text, err := s.library.Text(st.RefBook, ref)
		if err != nil {
			return services.Wrap(services.ErrValidation, stageName, "resolve text",
				fmt.Sprintf("Page %d text %s %s unavailable", page.Number, st.RefBook, ref), err)
		}
		pages[i] = PageText{Text: text, DurationMS: durations[i]}
	}

	timeline, err := BuildTimeline(ctx, TimelineRequest{
		Method:    method,
		Pages:     pages,
		TotalMS:   totalMS,
		Threshold: s.cfg.Subtitles.SplitThreshold,
		AudioPath: movie,
	}, s.aligner)
	if err != nil {
		if errors.Is(err, ErrAlignmentMismatch) {
			return services.Wrap(services.ErrExternalTool, stageName, "map alignment", "Aligner output does not match the chunk list", err)
		}
		return services.Wrap(services.ErrExternalTool, stageName, "build timeline", "Subtitle timing failed", err)
	}

	srtPath := s.layout.Subtitles(st)
	if err := WriteSRT(srtPath, timeline.Cues); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "write srt", "Failed to write subtitle file", err)
	}
	if issues := ValidateSRTContent(srtPath, totalMS); len(issues) > 0 {
		logging.WarnWithContext(s.logger, "subtitle validation issues", "subtitle_validation",
			logging.String("subtitle_file", srtPath),
			logging.Any("issues", issues),
			logging.String(logging.FieldErrorHint, "compare the SRT against the rendered movie"),
			logging.String(logging.FieldImpact, "captions may drift from narration"),
		)
	}

	s.logger.Info("subtitles written",
		logging.String(logging.FieldEventType, "subtitles_written"),
		logging.String("subtitle_file", srtPath),
		logging.String("method", string(method)),
		logging.Int("cues", len(timeline.Cues)),
		logging.Millis("padding", timeline.PaddingMS),
		logging.Millis("movie", totalMS),
	)

	if s.cfg.Subtitles.Hardcoded {
		req := BurnRequest{VideoPath: movie, SubtitlePath: srtPath, OutputPath: s.layout.Subbed(st)}
		if err := s.burner.Burn(ctx, req); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "burn subtitles", "ffmpeg failed to burn subtitles", err)
		}
		s.logger.Info("subtitles burned in",
			logging.String(logging.FieldEventType, "subtitles_burned"),
			logging.String("output_file", req.OutputPath),
		)
	}

	s.logger.Debug("subtitle stage finished", logging.Duration("elapsed", time.Since(started)))
	return nil
}

// HealthCheck reports whether the tools this stage needs are installed.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.cfg == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	if !s.cfg.Subtitles.Enabled {
		return stage.Healthy(stageName)
	}
	binaries := []string{s.cfg.FFprobeBinary()}
	if s.cfg.Subtitles.Hardcoded || s.cfg.UsesAligner() {
		binaries = append(binaries, s.cfg.FFmpegBinary())
	}
	if s.cfg.UsesAligner() {
		binaries = append(binaries, s.cfg.Subtitles.AeneasPython)
	}
	return stage.BinaryHealth(stageName, binaries...)
}
