package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeSubtitles()
	c.normalizeLogging()
	return c.normalizeBooks()
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.story_src", &c.Paths.StorySrc},
		{"paths.image_src", &c.Paths.ImageSrc},
		{"paths.audio_temp", &c.Paths.AudioTemp},
		{"paths.video_temp", &c.Paths.VideoTemp},
		{"paths.page_timing_temp", &c.Paths.PageTimingTemp},
		{"paths.subs_temp", &c.Paths.SubsTemp},
		{"paths.video_out", &c.Paths.VideoOut},
		{"paths.subs_out", &c.Paths.SubsOut},
		{"paths.video_subs_out", &c.Paths.VideoSubsOut},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeVideo() {
	c.Video.PixelFormat = strings.TrimSpace(c.Video.PixelFormat)
	c.Video.VideoCodec = strings.TrimSpace(c.Video.VideoCodec)
	c.Video.AudioCodec = strings.TrimSpace(c.Video.AudioCodec)
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Method = strings.ToLower(strings.TrimSpace(c.Subtitles.Method))
	if c.Subtitles.Method == "" {
		c.Subtitles.Method = defaultSubsMethod
	}
	c.Subtitles.AeneasPython = strings.TrimSpace(c.Subtitles.AeneasPython)
	if c.Subtitles.AeneasPython == "" {
		c.Subtitles.AeneasPython = defaultPython
	}
	c.Subtitles.AeneasLanguage = strings.TrimSpace(c.Subtitles.AeneasLanguage)
	if c.Subtitles.AeneasLanguage == "" {
		c.Subtitles.AeneasLanguage = defaultAeneasLang
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeBooks() error {
	if c.Books == nil {
		c.Books = map[string]Book{}
		return nil
	}
	normalized := make(map[string]Book, len(c.Books))
	for id, book := range c.Books {
		key := strings.TrimSpace(id)
		var err error
		if book.Timing, err = expandPath(strings.TrimSpace(book.Timing)); err != nil {
			return fmt.Errorf("books.%s.timing: %w", key, err)
		}
		if book.Audio, err = expandPath(strings.TrimSpace(book.Audio)); err != nil {
			return fmt.Errorf("books.%s.audio: %w", key, err)
		}
		if book.Text, err = expandPath(strings.TrimSpace(book.Text)); err != nil {
			return fmt.Errorf("books.%s.text: %w", key, err)
		}
		normalized[key] = book
	}
	c.Books = normalized
	return nil
}
