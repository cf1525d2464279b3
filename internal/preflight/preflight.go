package preflight

import (
	"context"

	"storybuilder/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Book text is only checked when subtitles are enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckFileReadable("Story collection", cfg.Paths.StorySrc))
	results = append(results, CheckReadableDirectory("Image directory", cfg.Paths.ImageSrc))

	work := []struct {
		name string
		path string
	}{
		{"Audio scratch", cfg.Paths.AudioTemp},
		{"Video scratch", cfg.Paths.VideoTemp},
		{"Page timing scratch", cfg.Paths.PageTimingTemp},
		{"Video output", cfg.Paths.VideoOut},
		{"Subtitle output", cfg.Paths.SubsOut},
		{"Subtitled video output", cfg.Paths.VideoSubsOut},
	}
	if cfg.UsesAligner() {
		work = append(work, struct {
			name string
			path string
		}{"Aligner scratch", cfg.Paths.SubsTemp})
	}
	for _, dir := range work {
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}

	for _, book := range cfg.ScriptureBooks() {
		if ctx.Err() != nil {
			break
		}
		results = append(results, CheckBookSources(book, cfg.Subtitles.Enabled)...)
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
