package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"storybuilder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		StorySrc:       filepath.Join(base, "stories.json"),
		ImageSrc:       filepath.Join(base, "images"),
		AudioTemp:      filepath.Join(base, "tmp", "audio"),
		VideoTemp:      filepath.Join(base, "tmp", "video"),
		PageTimingTemp: filepath.Join(base, "tmp", "timing"),
		SubsTemp:       filepath.Join(base, "tmp", "aeneas"),
		VideoOut:       filepath.Join(base, "out", "video"),
		SubsOut:        filepath.Join(base, "out", "subs"),
		VideoSubsOut:   filepath.Join(base, "out", "video_subs"),
		LogDir:         filepath.Join(base, "logs"),
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSubtitleMethod selects the subtitle timing method.
func WithSubtitleMethod(method string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Subtitles.Method = method
	}
}

// WithHardcodedSubtitles enables the burn-in step.
func WithHardcodedSubtitles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Subtitles.Hardcoded = true
	}
}

// WithBook registers a book whose sources live under the test base dir.
func WithBook(id string, chapters int) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "books", id)
		b.cfg.Books[id] = config.Book{
			NumChapters: chapters,
			Timing:      filepath.Join(dir, "timing", "C[nn].txt"),
			Audio:       filepath.Join(dir, "audio", "C[nn].mp3"),
			Text:        filepath.Join(dir, id+".usfm"),
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
