package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"storybuilder/internal/fileutil"
	"storybuilder/internal/logging"
	"storybuilder/internal/media/ffmpeg"
)

// BurnRequest describes one subtitle burn-in.
type BurnRequest struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
}

// Burner renders subtitles into a copy of a video with ffmpeg's subtitles filter.
type Burner struct {
	ffmpeg     string
	videoCodec string
	run        ffmpeg.Runner
	logger     *slog.Logger
}

// NewBurner constructs a subtitle burner.
func NewBurner(ffmpegBinary, videoCodec string, logger *slog.Logger) *Burner {
	return &Burner{
		ffmpeg:     ffmpegBinary,
		videoCodec: videoCodec,
		run:        ffmpeg.Run,
		logger:     logging.NewComponentLogger(logger, "burner"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (b *Burner) WithCommandRunner(r ffmpeg.Runner) {
	if b != nil && r != nil {
		b.run = r
	}
}

// SetLogger updates the burner's logging destination.
func (b *Burner) SetLogger(logger *slog.Logger) {
	if b != nil {
		b.logger = logging.NewComponentLogger(logger, "burner")
	}
}

// Burn re-encodes the video with the subtitles drawn in and copies the audio.
// An existing output is replaced.
func (b *Burner) Burn(ctx context.Context, req BurnRequest) error {
	if b == nil {
		return fmt.Errorf("burner not initialized")
	}
	if strings.TrimSpace(req.VideoPath) == "" || strings.TrimSpace(req.SubtitlePath) == "" || strings.TrimSpace(req.OutputPath) == "" {
		return fmt.Errorf("video, subtitle, and output paths are required")
	}
	if _, err := os.Stat(req.SubtitlePath); err != nil {
		return fmt.Errorf("subtitle file not found: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	if err := fileutil.RemoveIfExists(req.OutputPath); err != nil {
		return fmt.Errorf("remove previous output: %w", err)
	}

	input := ffmpeggo.Input(req.VideoPath)
	subbed := input.Video().Filter("subtitles", ffmpeggo.Args{req.SubtitlePath})
	out := ffmpeggo.Output([]*ffmpeggo.Stream{subbed, input.Audio()}, req.OutputPath, ffmpeggo.KwArgs{
		"c:v": b.videoCodec,
		"c:a": "copy",
	}).OverWriteOutput()

	b.logger.Debug("burning subtitles",
		logging.String("video", req.VideoPath),
		logging.String("subtitles", req.SubtitlePath),
		logging.String("output", req.OutputPath),
	)
	if err := ffmpeg.Exec(ctx, b.run, b.ffmpeg, out); err != nil {
		return fmt.Errorf("burn subtitles: %w", err)
	}
	return nil
}
