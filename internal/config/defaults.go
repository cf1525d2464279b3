package config

const (
	defaultConfigPath  = "~/.config/storybuilder/config.toml"
	projectConfigName  = "storybuilder.toml"
	defaultStorySrc    = "~/storybuilder/stories.json"
	defaultImageSrc    = "~/storybuilder/images"
	defaultAudioTemp   = "~/.local/share/storybuilder/tmp/audio"
	defaultVideoTemp   = "~/.local/share/storybuilder/tmp/video"
	defaultTimingTemp  = "~/.local/share/storybuilder/tmp/timing"
	defaultSubsTemp    = "~/.local/share/storybuilder/tmp/aeneas"
	defaultVideoOut    = "~/storybuilder/out/video"
	defaultSubsOut     = "~/storybuilder/out/subs"
	defaultVideoSubs   = "~/storybuilder/out/video_subs"
	defaultLogDir      = "~/.local/share/storybuilder/logs"
	defaultFPS         = 30
	defaultSmoothness  = 8
	defaultHeight      = 720
	defaultPixelFormat = "yuv420p"
	defaultVideoCodec  = "libx264"
	defaultAudioCodec  = "aac"
	defaultSubsMethod  = SubtitleMethodInterpolate
	defaultSubsSplit   = 40
	defaultPython      = "python3"
	defaultAeneasLang  = "epo"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Subtitle timing methods.
const (
	SubtitleMethodInterpolate = "interpolate"
	SubtitleMethodAeneas      = "aeneas"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorySrc:       defaultStorySrc,
			ImageSrc:       defaultImageSrc,
			AudioTemp:      defaultAudioTemp,
			VideoTemp:      defaultVideoTemp,
			PageTimingTemp: defaultTimingTemp,
			SubsTemp:       defaultSubsTemp,
			VideoOut:       defaultVideoOut,
			SubsOut:        defaultSubsOut,
			VideoSubsOut:   defaultVideoSubs,
			LogDir:         defaultLogDir,
		},
		Video: Video{
			FPS:          defaultFPS,
			Smoothness:   defaultSmoothness,
			OutputHeight: defaultHeight,
			PixelFormat:  defaultPixelFormat,
			VideoCodec:   defaultVideoCodec,
			AudioCodec:   defaultAudioCodec,
		},
		Subtitles: Subtitles{
			Enabled:        true,
			Method:         defaultSubsMethod,
			SplitThreshold: defaultSubsSplit,
			AeneasPython:   defaultPython,
			AeneasLanguage: defaultAeneasLang,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Books: map[string]Book{},
	}
}
