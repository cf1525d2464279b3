package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"storybuilder/internal/scripture"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input sources, scratch areas, and output directories.
type Paths struct {
	StorySrc       string `toml:"story_src"`
	ImageSrc       string `toml:"image_src"`
	AudioTemp      string `toml:"audio_temp"`
	VideoTemp      string `toml:"video_temp"`
	PageTimingTemp string `toml:"page_timing_temp"`
	SubsTemp       string `toml:"subs_temp"`
	VideoOut       string `toml:"video_out"`
	SubsOut        string `toml:"subs_out"`
	VideoSubsOut   string `toml:"video_subs_out"`
	LogDir         string `toml:"log_dir"`
}

// Video contains page rendering and encoding settings.
type Video struct {
	FPS          int    `toml:"fps"`
	Smoothness   int    `toml:"smoothness"`
	OutputHeight int    `toml:"output_height"`
	PixelFormat  string `toml:"pixel_format"`
	VideoCodec   string `toml:"video_codec"`
	AudioCodec   string `toml:"audio_codec"`
}

// Subtitles contains subtitle timing and burn-in settings.
type Subtitles struct {
	Enabled        bool   `toml:"enabled"`
	Method         string `toml:"method"`
	SplitThreshold int    `toml:"split_threshold"`
	Hardcoded      bool   `toml:"hardcoded"`
	AeneasPython   string `toml:"aeneas_python"`
	AeneasLanguage string `toml:"aeneas_language"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Book locates the per-chapter sources of one scripture book. Timing and
// audio are path templates where "[nnn]" stands for the zero-padded chapter.
type Book struct {
	NumChapters int    `toml:"num_chapters"`
	Timing      string `toml:"timing"`
	Audio       string `toml:"audio"`
	Text        string `toml:"text"`
}

// Config encapsulates all configuration values for storybuilder.
//
// Configuration sections by subsystem:
//   - Paths: story collection, illustrations, scratch and output directories
//   - Video: frame rate, zoom smoothness, output size, and codecs
//   - Subtitles: timing method, chunk threshold, burn-in, and aligner
//   - Logging: log format and level
//   - Books: per-book timing, audio, and text sources keyed by book id
type Config struct {
	Paths     Paths           `toml:"paths"`
	Video     Video           `toml:"video"`
	Subtitles Subtitles       `toml:"subtitles"`
	Logging   Logging         `toml:"logging"`
	Books     map[string]Book `toml:"books"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Environment overrides are applied after the
// file is decoded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WorkDirectories returns every scratch and output directory the pipeline writes to.
func (c *Config) WorkDirectories() []string {
	return []string{
		c.Paths.AudioTemp,
		c.Paths.VideoTemp,
		c.Paths.PageTimingTemp,
		c.Paths.SubsTemp,
		c.Paths.VideoOut,
		c.Paths.SubsOut,
		c.Paths.VideoSubsOut,
	}
}

// EnsureDirectories creates the scratch, output, and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := append(c.WorkDirectories(), c.Paths.LogDir)
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// BookIDs returns the configured book ids in sorted order.
func (c *Config) BookIDs() []string {
	ids := make([]string, 0, len(c.Books))
	for id := range c.Books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FFmpegBinary returns the ffmpeg executable name used for cutting, rendering, and burn-in.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// UsesAligner reports whether subtitles are enabled and timed by the forced
// aligner.
func (c *Config) UsesAligner() bool {
	return c.Subtitles.Enabled && c.Subtitles.Method == SubtitleMethodAeneas
}

// LockPath returns the path of the single-run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "storybuilder.lock")
}

// RunStorePath returns the path of the run history database.
func (c *Config) RunStorePath() string {
	return filepath.Join(c.Paths.LogDir, "runs.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ScriptureBooks converts the configured books into scripture source descriptors.
func (c *Config) ScriptureBooks() []scripture.Book {
	books := make([]scripture.Book, 0, len(c.Books))
	for _, id := range c.BookIDs() {
		book := c.Books[id]
		books = append(books, scripture.Book{
			ID:             id,
			NumChapters:    book.NumChapters,
			TimingTemplate: book.Timing,
			AudioTemplate:  book.Audio,
			TextPath:       book.Text,
		})
	}
	return books
}
