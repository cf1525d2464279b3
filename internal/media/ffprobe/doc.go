// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: injectable inspection function used by the render and subtitle stages
//
// Inspect executes ffprobe and returns the parsed Result; DurationMS turns the
// container duration into the whole milliseconds the timing engine works in.
package ffprobe
