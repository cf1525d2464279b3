package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// Runner executes an external command. Stages hold one so tests can capture
// invocations instead of spawning ffmpeg.
type Runner func(ctx context.Context, name string, args ...string) error

// Run is the default Runner. Combined output is folded into the error so
// failures carry ffmpeg's own diagnostics.
func Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 20))
	}
	return nil
}

// Exec runs the command line compiled from stream through runner.
func Exec(ctx context.Context, runner Runner, binary string, stream *ffmpeggo.Stream) error {
	if runner == nil {
		runner = Run
	}
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return runner(ctx, binary, stream.GetArgs()...)
}

// Seconds formats milliseconds as a seek position ffmpeg accepts.
func Seconds(ms int) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

func tail(output string, lines int) string {
	trimmed := strings.TrimSpace(output)
	parts := strings.Split(trimmed, "\n")
	if len(parts) <= lines {
		return trimmed
	}
	return strings.Join(parts[len(parts)-lines:], "\n")
}
