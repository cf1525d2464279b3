package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storybuilder/internal/scripture"
	"storybuilder/internal/subtitles"
)

func newChunkCommand(ctx *commandContext) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "chunk <book> <start> [end]",
		Short: "Print the subtitle chunks for a verse range",
		Long: "Load the book's text source, resolve the verse range, and print the\n" +
			"caption chunks the subtitle stage would produce for it.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bookID := strings.TrimSpace(args[0])
			var book *scripture.Book
			for _, b := range cfg.ScriptureBooks() {
				if b.ID == bookID {
					book = &b
					break
				}
			}
			if book == nil {
				return fmt.Errorf("%w: %q is not configured", scripture.ErrUnknownBook, bookID)
			}
			end := args[1]
			if len(args) == 3 {
				end = args[2]
			}
			ref, err := scripture.ParseReference(args[1], end)
			if err != nil {
				return err
			}
			table, err := scripture.LoadTextTable(*book)
			if err != nil {
				return err
			}
			text, err := table.Text(ref)
			if err != nil {
				return err
			}

			limit := cfg.Subtitles.SplitThreshold
			if cmd.Flags().Changed("threshold") {
				limit = threshold
			}
			out := cmd.OutOrStdout()
			for i, chunk := range subtitles.ChunkText(text, limit) {
				fmt.Fprintf(out, "%d\t%s\n", i+1, strings.ReplaceAll(chunk, "\n", " / "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "Override subtitles.split_threshold")
	return cmd
}
