package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storybuilder/internal/pipeline"
	"storybuilder/internal/services"
)

// errStoriesFailed makes the process exit non-zero after the summary has
// already been printed.
var errStoriesFailed = errors.New("one or more stories failed")

func newRunCommand(ctx *commandContext) *cobra.Command {
	var stages []string
	var storyName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for every story, or one story",
		Long: "Run the audio, video, and subtitle stages for each story in the collection.\n" +
			"A story that fails is recorded and the run continues with the next one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, stages, storyName)
		},
	}
	cmd.Flags().StringSliceVarP(&stages, "stage", "s", nil, "Stages to run: audio, video, subs (default all)")
	cmd.Flags().StringVar(&storyName, "story", "", "Only process the story with this title")
	return cmd
}

func newStageShortcuts(ctx *commandContext) []*cobra.Command {
	shortcuts := []struct {
		use   string
		stage string
		short string
	}{
		{"audio", pipeline.StageAudio, "Cut and join page narration clips"},
		{"video", pipeline.StageVideo, "Render page animations and the story movie"},
		{"subs", pipeline.StageSubtitles, "Write subtitles and optionally burn them in"},
	}
	cmds := make([]*cobra.Command, 0, len(shortcuts))
	for _, sc := range shortcuts {
		var storyName string
		cmd := &cobra.Command{
			Use:   sc.use,
			Short: sc.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPipeline(cmd, ctx, []string{sc.stage}, storyName)
			},
		}
		cmd.Flags().StringVar(&storyName, "story", "", "Only process the story with this title")
		cmds = append(cmds, cmd)
	}
	return cmds
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, stages []string, storyName string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	runner := pipeline.New(cfg, logger)
	summary, err := runner.Run(cmd.Context(), pipeline.Options{
		Stages: stages,
		Story:  strings.TrimSpace(storyName),
	})
	if len(summary.Results) > 0 {
		printRunSummary(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return err
	}
	if failed := summary.Failed(); failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d stories failed (run %s)\n", failed, len(summary.Results), summary.RunID)
		return errStoriesFailed
	}
	return nil
}

func printRunSummary(out io.Writer, summary pipeline.Summary) {
	results := newTable("Story", "Result", "Detail")
	for _, result := range summary.Results {
		outcome := "ok"
		detail := ""
		if result.Failed() {
			details := services.Details(result.Err)
			outcome = string(services.FailureStatus(result.Err))
			detail = fmt.Sprintf("%s: %s", result.Stage, details.Message)
		}
		results.add(result.Title, outcome, truncate(detail, 80))
	}
	fmt.Fprintln(out, results)
	fmt.Fprintf(out, "Run %s: %d stories, %d failed, %s\n",
		summary.RunID, len(summary.Results), summary.Failed(), formatDuration(summary.Duration))
}
