package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"storybuilder/internal/config"
	"storybuilder/internal/fileutil"
	"storybuilder/internal/logging"
	"storybuilder/internal/media/ffmpeg"
	"storybuilder/internal/media/ffprobe"
	"storybuilder/internal/services"
	"storybuilder/internal/stage"
	"storybuilder/internal/story"
)

const stageName = "video"

// Stage renders page fragments and concatenates them into the story movie.
type Stage struct {
	cfg    *config.Config
	layout story.Layout
	run    ffmpeg.Runner
	probe  ffprobe.Prober
	logger *slog.Logger
}

// NewStage constructs the video stage.
func NewStage(cfg *config.Config, logger *slog.Logger) *Stage {
	s := &Stage{
		cfg:    cfg,
		layout: story.NewLayout(cfg.Paths),
		run:    ffmpeg.Run,
		probe:  ffprobe.NewProber(cfg.FFprobeBinary()),
	}
	s.SetLogger(logger)
	return s
}

// SetLogger routes stage logs into the story-scoped logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "video-stage")
}

// WithCommandRunner replaces the ffmpeg runner.
func (s *Stage) WithCommandRunner(r ffmpeg.Runner) {
	if s != nil && r != nil {
		s.run = r
	}
}

// WithProber replaces the media prober used for page durations.
func (s *Stage) WithProber(p ffprobe.Prober) {
	if s != nil && p != nil {
		s.probe = p
	}
}

// Prepare checks page inputs and creates the output directories.
func (s *Stage) Prepare(ctx context.Context, st *story.Story) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Video stage is not configured", nil)
	}
	for _, page := range st.Pages {
		for _, path := range []string{s.layout.PageImage(page), s.layout.PageAudio(st, page)} {
			if _, err := os.Stat(path); err != nil {
				return services.Wrap(services.ErrNotFound, stageName, "prepare",
					fmt.Sprintf("Page %d input %s is missing", page.Number, path), err)
			}
		}
	}
	for _, dir := range []string{s.layout.VideoTemp, s.layout.VideoOut, s.layout.TimingTemp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, stageName, "prepare",
				fmt.Sprintf("Failed to create %s", dir), err)
		}
	}
	return nil
}

// Execute renders every page, concatenates the movie, and records page durations.
func (s *Stage) Execute(ctx context.Context, st *story.Story) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "execute", "Video stage is not configured", nil)
	}
	started := time.Now()

	if err := fileutil.ClearDir(s.layout.VideoTemp); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "clear fragments", "Failed to clear video_temp", err)
	}

	names := make([]string, 0, len(st.Pages))
	durations := make([]int, 0, len(st.Pages))
	for _, page := range st.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		duration, err := s.renderPage(ctx, st, page)
		if err != nil {
			return err
		}
		names = append(names, s.layout.PageVideoName(page))
		durations = append(durations, duration)
	}

	listPath := s.layout.PageList()
	if err := fileutil.WriteFileAtomic(listPath, []byte(PageList(names))); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "write page list", "Failed to write concat list", err)
	}
	movie := s.layout.Movie(st)
	if err := fileutil.RemoveIfExists(movie); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "concat", "Failed to remove previous movie", err)
	}
	if err := ffmpeg.Exec(ctx, s.run, s.cfg.FFmpegBinary(), concatCommand(listPath, movie)); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "concat", "ffmpeg failed to concatenate pages", err)
	}
	if err := story.WritePageDurations(s.layout.PageTimings(st), durations); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "write page durations", "Failed to write page timing file", err)
	}

	s.logger.Info("movie written",
		logging.String(logging.FieldEventType, "movie_written"),
		logging.String("output_file", movie),
		logging.Int("pages", len(names)),
		logging.Millis("duration", sum(durations)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (s *Stage) renderPage(ctx context.Context, st *story.Story, page story.Page) (int, error) {
	audioPath := s.layout.PageAudio(st, page)
	audioMS, err := s.probe.AudioDurationMS(ctx, audioPath)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, stageName, "probe page audio",
			fmt.Sprintf("Page %d narration could not be measured", page.Number), err)
	}
	plan, err := PlanZoompan(page.InitialRect, page.FinalRect, audioMS, s.cfg.Video.FPS)
	if err != nil {
		if errors.Is(err, ErrNoFrames) {
			return 0, services.Wrap(services.ErrValidation, stageName, "plan zoom",
				fmt.Sprintf("Page %d narration is too short to animate", page.Number), err)
		}
		return 0, err
	}

	req := PageRequest{
		AudioPath:  audioPath,
		ImagePath:  s.layout.PageImage(page),
		OutputPath: s.layout.PageVideo(page),
		Plan:       plan,
	}
	pageStarted := time.Now()
	if err := ffmpeg.Exec(ctx, s.run, s.cfg.FFmpegBinary(), pageCommand(s.cfg.Video, req)); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, stageName, "render page",
			fmt.Sprintf("ffmpeg failed to render page %d", page.Number), err)
	}

	// The fragment can differ from the narration by a few frames; the rendered
	// length is what the subtitle timeline has to follow.
	duration, err := s.probe.AudioDurationMS(ctx, req.OutputPath)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, stageName, "probe page video",
			fmt.Sprintf("Page %d fragment could not be measured", page.Number), err)
	}

	s.logger.Info("page rendered",
		logging.String(logging.FieldEventType, "page_rendered"),
		logging.Page(page.Number),
		logging.Int("frames", plan.Frames),
		logging.Millis("audio", audioMS),
		logging.Millis("video", duration),
		logging.Duration("elapsed", time.Since(pageStarted)),
	)
	return duration, nil
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// HealthCheck reports whether ffmpeg and ffprobe are installed.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.cfg == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	return stage.BinaryHealth(stageName, s.cfg.FFmpegBinary(), s.cfg.FFprobeBinary())
}
