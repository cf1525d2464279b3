package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storybuilder/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the storybuilder configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if err := writeSampleConfig(target, overwrite); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Point [paths] at the story collection and images, then add a [books.<ID>] section per book.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

// initTarget resolves the destination for config init, defaulting to the
// per-user config location.
func initTarget(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		target, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return target, nil
	}
	target, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return target, nil
}

func writeSampleConfig(target string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if !overwrite {
		switch _, err := os.Stat(target); {
		case err == nil:
			return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("check config path: %w", err)
		}
	}
	if err := config.CreateSample(target); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and summarise what it enables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			rep := newReport(cmd.OutOrStdout())
			rep.section("Configuration")
			rep.add(configChecks(cfg, ctx.configPath)...)
			rep.block("Configuration valid")
			return nil
		},
	}
}

func configChecks(cfg *config.Config, path string) []check {
	source := check{label: "Config path", level: levelPass, detail: path}
	if _, err := os.Stat(path); err != nil {
		source.level = levelInfo
		source.detail = path + " (missing, defaults used)"
	}
	subs := check{label: "Subtitles", level: levelInfo, detail: "disabled"}
	if cfg.Subtitles.Enabled {
		subs.detail = fmt.Sprintf("%s, threshold %d, burned in: %s",
			cfg.Subtitles.Method, cfg.Subtitles.SplitThreshold, yesNo(cfg.Subtitles.Hardcoded))
	}
	books := check{label: "Books", level: levelInfo, detail: fallback(strings.Join(cfg.BookIDs(), ", "), "none")}
	if len(cfg.Books) == 0 {
		books.level = levelWarn
	}
	video := check{label: "Video", level: levelInfo,
		detail: fmt.Sprintf("%d fps, %dp, %s", cfg.Video.FPS, cfg.Video.OutputHeight, cfg.Video.VideoCodec)}
	return []check{source, subs, video, books}
}
