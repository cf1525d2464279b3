package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateBooks()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StorySrc) == "" {
		return errors.New("paths.story_src must be set")
	}
	for key, value := range map[string]string{
		"paths.audio_temp":       c.Paths.AudioTemp,
		"paths.video_temp":       c.Paths.VideoTemp,
		"paths.page_timing_temp": c.Paths.PageTimingTemp,
		"paths.video_out":        c.Paths.VideoOut,
		"paths.log_dir":          c.Paths.LogDir,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	if c.Paths.VideoTemp == c.Paths.VideoOut {
		return errors.New("paths.video_temp must differ from paths.video_out (page fragments are cleared before each story)")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if c.Video.Smoothness <= 0 {
		return errors.New("video.smoothness must be positive")
	}
	if c.Video.OutputHeight <= 0 {
		return errors.New("video.output_height must be positive")
	}
	if c.Video.PixelFormat == "" {
		return errors.New("video.pixel_format must be set")
	}
	if c.Video.VideoCodec == "" {
		return errors.New("video.video_codec must be set")
	}
	if c.Video.AudioCodec == "" {
		return errors.New("video.audio_codec must be set")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	switch c.Subtitles.Method {
	case SubtitleMethodInterpolate, SubtitleMethodAeneas:
	default:
		return fmt.Errorf("subtitles.method must be %q or %q, got %q", SubtitleMethodInterpolate, SubtitleMethodAeneas, c.Subtitles.Method)
	}
	if c.Subtitles.SplitThreshold <= 0 {
		return errors.New("subtitles.split_threshold must be positive")
	}
	if c.Subtitles.Enabled {
		if strings.TrimSpace(c.Paths.SubsOut) == "" {
			return errors.New("paths.subs_out must be set when subtitles are enabled")
		}
		if c.Subtitles.Method == SubtitleMethodAeneas && strings.TrimSpace(c.Paths.SubsTemp) == "" {
			return errors.New("paths.subs_temp must be set when subtitles.method is aeneas")
		}
		if c.Subtitles.Hardcoded && strings.TrimSpace(c.Paths.VideoSubsOut) == "" {
			return errors.New("paths.video_subs_out must be set when subtitles.hardcoded is true")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateBooks() error {
	for _, id := range c.BookIDs() {
		book := c.Books[id]
		if id == "" {
			return errors.New("books: book id must not be empty")
		}
		if book.NumChapters <= 0 {
			return fmt.Errorf("books.%s.num_chapters must be positive", id)
		}
		if book.Timing == "" {
			return fmt.Errorf("books.%s.timing must be set", id)
		}
		if book.Audio == "" {
			return fmt.Errorf("books.%s.audio must be set", id)
		}
		if book.Text == "" {
			return fmt.Errorf("books.%s.text must be set", id)
		}
	}
	return nil
}
