package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "STORYBUILDER_"

// envOverrides lists the settings that may be supplied through STORYBUILDER_*
// environment variables. Unset variables leave the file value untouched.
type envOverrides struct {
	StorySrc       string `env:"STORY_SRC"`
	ImageSrc       string `env:"IMAGE_SRC"`
	LogDir         string `env:"LOG_DIR"`
	LogLevel       string `env:"LOG_LEVEL"`
	LogFormat      string `env:"LOG_FORMAT"`
	SubsMethod     string `env:"SUBS_METHOD"`
	SubsEnabled    *bool  `env:"SUBS_ENABLED"`
	SubsHardcoded  *bool  `env:"SUBS_HARDCODED"`
	SplitThreshold *int   `env:"SUBS_SPLIT"`
	AeneasPython   string `env:"AENEAS_PYTHON"`
	FPS            *int   `env:"FPS"`
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.ParseWithOptions(&overrides, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment overrides: %w", err)
	}

	setString(&c.Paths.StorySrc, overrides.StorySrc)
	setString(&c.Paths.ImageSrc, overrides.ImageSrc)
	setString(&c.Paths.LogDir, overrides.LogDir)
	setString(&c.Logging.Level, overrides.LogLevel)
	setString(&c.Logging.Format, overrides.LogFormat)
	setString(&c.Subtitles.Method, overrides.SubsMethod)
	setString(&c.Subtitles.AeneasPython, overrides.AeneasPython)
	if overrides.SubsEnabled != nil {
		c.Subtitles.Enabled = *overrides.SubsEnabled
	}
	if overrides.SubsHardcoded != nil {
		c.Subtitles.Hardcoded = *overrides.SubsHardcoded
	}
	if overrides.SplitThreshold != nil {
		c.Subtitles.SplitThreshold = *overrides.SplitThreshold
	}
	if overrides.FPS != nil {
		c.Video.FPS = *overrides.FPS
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
