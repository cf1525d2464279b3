package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storybuilder/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Show pipeline run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *runstore.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}
				history := newTable("Run", "Started", "Status", "Stages", "Stories", "Total", "Failed", "Took").alignRight(5, 6, 7)
				for _, run := range runs {
					history.add(
						shortID(run.ID),
						formatTimestamp(run.StartedAt),
						string(run.Status),
						strings.Join(run.Stages, ","),
						fallback(run.StoryFilter, "all"),
						strconv.Itoa(run.StoriesTotal),
						strconv.Itoa(run.StoriesFailed),
						formatDuration(run.Duration()),
					)
				}
				fmt.Fprintln(out, history)
				return nil
			})
		},
	}
	runsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))
	return runsCmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-story stage results for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *runstore.Store) error {
				run, err := resolveRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				stages, err := store.StageRuns(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:      %s\n", run.ID)
				fmt.Fprintf(out, "Status:   %s\n", run.Status)
				fmt.Fprintf(out, "Started:  %s\n", formatTimestamp(run.StartedAt))
				fmt.Fprintf(out, "Stages:   %s\n", strings.Join(run.Stages, ", "))
				fmt.Fprintf(out, "Filtered: %s\n", yesNo(run.StoryFilter != ""))
				if len(stages) == 0 {
					fmt.Fprintln(out, "No stages recorded")
					return nil
				}
				table := newTable("Story", "Stage", "Status", "Took", "Error").alignRight(3)
				for _, sr := range stages {
					took := ""
					if sr.FinishedAt != nil {
						took = formatDuration(sr.FinishedAt.Sub(sr.StartedAt))
					}
					table.add(sr.Story, sr.Stage, string(sr.Status), took, truncate(sr.ErrorMessage, 70))
				}
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return withStore(ctx, func(store *runstore.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove runs that started before now minus this duration")
	return cmd
}

func withStore(ctx *commandContext, fn func(*runstore.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runstore.Open(cfg.RunStorePath())
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// resolveRun accepts a full run id or a unique prefix of one.
func resolveRun(ctx context.Context, store *runstore.Store, id string) (runstore.Run, error) {
	id = strings.TrimSpace(id)
	run, err := store.GetRun(ctx, id)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, runstore.ErrNotFound) {
		return runstore.Run{}, err
	}
	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return runstore.Run{}, err
	}
	var matches []runstore.Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return runstore.Run{}, fmt.Errorf("run %q not found", id)
	case 1:
		return matches[0], nil
	default:
		return runstore.Run{}, fmt.Errorf("run prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
