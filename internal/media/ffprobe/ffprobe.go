package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the subset of ffprobe output the pipeline reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse %s: %w", path, err)
	}
	return result, nil
}

// HasStream reports whether any stream has the given codec type ("audio", "video").
func (r Result) HasStream(codecType string) bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			return true
		}
	}
	return false
}

// DurationSeconds returns the container duration in seconds, 0 when absent,
// or NaN when ffprobe reported something unparseable.
func (r Result) DurationSeconds() float64 {
	return parseSeconds(r.Format.Duration)
}

func parseSeconds(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}

// DurationMS returns the container duration truncated to whole milliseconds.
func (r Result) DurationMS() (int, error) {
	seconds := r.DurationSeconds()
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0, fmt.Errorf("ffprobe: no usable duration in %q", r.Format.Filename)
	}
	return int(seconds * 1000), nil
}

// AudioDurationMS returns the first audio stream's duration truncated to whole
// milliseconds. Containers whose audio stream carries no duration fall back to
// the container duration. Video streams are ignored, so a long zoompan track
// does not stretch the narration length.
func (r Result) AudioDurationMS() (int, error) {
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		seconds := parseSeconds(stream.Duration)
		if math.IsNaN(seconds) || seconds <= 0 {
			break
		}
		return int(seconds * 1000), nil
	}
	return r.DurationMS()
}

// Prober inspects a media file. Inspect bound to a binary satisfies it.
type Prober func(ctx context.Context, path string) (Result, error)

// NewProber binds Inspect to binary.
func NewProber(binary string) Prober {
	return func(ctx context.Context, path string) (Result, error) {
		return Inspect(ctx, binary, path)
	}
}

// AudioDurationMS probes path and returns its audio length in whole
// milliseconds.
func (p Prober) AudioDurationMS(ctx context.Context, path string) (int, error) {
	result, err := p(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.AudioDurationMS()
}
