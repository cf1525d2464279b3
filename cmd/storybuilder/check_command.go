package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storybuilder/internal/config"
	"storybuilder/internal/deps"
	"storybuilder/internal/logging"
	"storybuilder/internal/pipeline"
	"storybuilder/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether dependencies, directories, and book sources are ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if failures := writeCheckReport(cmd.Context(), cmd.OutOrStdout(), cfg); failures > 0 {
				return fmt.Errorf("%d readiness checks failed", failures)
			}
			return nil
		},
	}
}

// writeCheckReport prints every readiness section and returns the number of
// failed required checks.
func writeCheckReport(ctx context.Context, out io.Writer, cfg *config.Config) int {
	rep := newReport(out)

	rep.section("Dependencies")
	rep.add(dependencyChecks(preflight.CheckSystemDeps(ctx, cfg))...)

	rep.section("Paths")
	for _, r := range preflight.RunAll(ctx, cfg) {
		c := check{label: r.Name, level: levelPass, detail: r.Detail}
		if !r.Passed {
			c.level = levelFail
		}
		rep.add(c)
	}

	rep.section("Stages")
	rep.add(stageChecks(ctx, cfg)...)

	rep.section("Books")
	ids := cfg.BookIDs()
	if len(ids) == 0 {
		rep.add(check{label: "Books", level: levelWarn, detail: "no books configured"})
		return rep.failures
	}
	books := newTable("Book", "Chapters", "Timing", "Audio").alignRight(1)
	for _, id := range ids {
		book := cfg.Books[id]
		books.add(id, strconv.Itoa(book.NumChapters), book.Timing, book.Audio)
	}
	rep.block(books.String())
	return rep.failures
}

func stageChecks(ctx context.Context, cfg *config.Config) []check {
	checks := make([]check, 0, len(pipeline.AllStages)+1)
	for _, name := range pipeline.AllStages {
		handler, err := pipeline.DefaultHandlers(name, cfg, nil, logging.NewNop())
		if err != nil {
			checks = append(checks, check{label: name, level: levelFail, detail: err.Error()})
			continue
		}
		health := handler.HealthCheck(ctx)
		c := check{label: name, level: levelPass, detail: health.Summary()}
		if !health.Ready {
			c.level = levelFail
		}
		checks = append(checks, c)
	}
	if !cfg.Subtitles.Enabled {
		checks = append(checks, check{label: "subtitles", level: levelInfo, detail: "disabled in config"})
	}
	return checks
}

// dependencyChecks leads with a readiness count, lists each dependency, and
// closes with the names of missing required ones.
func dependencyChecks(statuses []deps.Status) []check {
	missing := deps.Missing(statuses)
	checks := make([]check, 0, len(statuses)+2)
	checks = append(checks, check{
		label:  "Summary",
		level:  levelInfo,
		detail: fmt.Sprintf("%d of %d ready", len(statuses)-len(missing), len(statuses)),
	})
	for _, s := range statuses {
		c := check{label: s.Name, level: levelPass, detail: "ready"}
		if s.Command != "" {
			c.detail = "ready (" + s.Command + ")"
		}
		if !s.Available {
			c.level = levelFail
			if s.Optional {
				c.level = levelWarn
			}
			c.detail = fallback(s.Detail, "not available")
		}
		checks = append(checks, c)
	}
	if len(missing) > 0 {
		checks = append(checks, check{label: "Missing", level: levelInfo, detail: strings.Join(missing, ", ")})
	}
	return checks
}
