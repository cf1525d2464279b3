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

// AeneasAligner runs the aeneas forced aligner in a scratch directory. The
// narration track is extracted from the source media into audio.mp3, chunks
// are written one per line into text.txt, and the sync map is read back from
// align.json.
type AeneasAligner struct {
	Python   string
	Language string
	FFmpeg   string
	WorkDir  string

	run    ffmpeg.Runner
	logger *slog.Logger
}

// NewAeneasAligner constructs an aligner that works inside workDir.
func NewAeneasAligner(python, language, ffmpegBinary, workDir string, logger *slog.Logger) *AeneasAligner {
	return &AeneasAligner{
		Python:   python,
		Language: language,
		FFmpeg:   ffmpegBinary,
		WorkDir:  workDir,
		run:      ffmpeg.Run,
		logger:   logging.NewComponentLogger(logger, "aeneas"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (a *AeneasAligner) WithCommandRunner(r ffmpeg.Runner) {
	if a != nil && r != nil {
		a.run = r
	}
}

// SetLogger updates the aligner's logging destination.
func (a *AeneasAligner) SetLogger(logger *slog.Logger) {
	if a != nil {
		a.logger = logging.NewComponentLogger(logger, "aeneas")
	}
}

// Align times lines against the audio track of mediaPath.
func (a *AeneasAligner) Align(ctx context.Context, mediaPath string, lines []string) ([]Fragment, error) {
	if a == nil {
		return nil, fmt.Errorf("aeneas aligner not initialized")
	}
	if strings.TrimSpace(a.WorkDir) == "" {
		return nil, fmt.Errorf("aeneas work directory is required")
	}
	if err := fileutil.ClearDir(a.WorkDir); err != nil {
		return nil, fmt.Errorf("clear aeneas work dir: %w", err)
	}

	audioPath := filepath.Join(a.WorkDir, aeneasAudioName)
	textPath := filepath.Join(a.WorkDir, aeneasTextName)
	alignPath := filepath.Join(a.WorkDir, aeneasOutputName)

	input := ffmpeggo.Input(mediaPath)
	extract := ffmpeggo.Output([]*ffmpeggo.Stream{input.Audio()}, audioPath, ffmpeggo.KwArgs{"c:a": "libmp3lame"}).
		OverWriteOutput()
	if err := ffmpeg.Exec(ctx, a.run, a.FFmpeg, extract); err != nil {
		return nil, fmt.Errorf("extract narration audio: %w", err)
	}

	if err := os.WriteFile(textPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return nil, fmt.Errorf("write aeneas text: %w", err)
	}

	python := strings.TrimSpace(a.Python)
	if python == "" {
		python = "python3"
	}
	params := fmt.Sprintf(aeneasTaskFormat, a.Language)
	a.logger.Debug("running aeneas",
		logging.String("audio", audioPath),
		logging.Int("lines", len(lines)),
		logging.String("task", params),
	)
	if err := a.run(ctx, python, "-m", aeneasModule, audioPath, textPath, params, alignPath); err != nil {
		return nil, fmt.Errorf("aeneas execute_task: %w", err)
	}

	data, err := os.ReadFile(alignPath)
	if err != nil {
		return nil, fmt.Errorf("read aeneas sync map: %w", err)
	}
	return ParseAlignment(data)
}
