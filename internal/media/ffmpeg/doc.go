// Package ffmpeg runs ffmpeg command lines built with ffmpeg-go.
//
// Command graphs are assembled with github.com/u2takey/ffmpeg-go and only
// compiled to arguments here; execution goes through a Runner so cancellation
// follows the caller's context and tests can record the arguments.
package ffmpeg
