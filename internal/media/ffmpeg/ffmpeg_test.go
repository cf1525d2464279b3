package ffmpeg

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

func TestExecPassesCompiledArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	runner := func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	stream := ffmpeggo.Input("chapter.mp3", ffmpeggo.KwArgs{"ss": "1.500", "to": "3.000"}).
		Output("page.mp3", ffmpeggo.KwArgs{"c:a": "libmp3lame"}).
		OverWriteOutput()
	if err := Exec(context.Background(), runner, "", stream); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("expected default binary ffmpeg, got %q", gotName)
	}
	for _, want := range []string{"-i", "chapter.mp3", "-ss", "1.500", "-to", "3.000", "page.mp3", "-y"} {
		if !slices.Contains(gotArgs, want) {
			t.Fatalf("expected %q in args %v", want, gotArgs)
		}
	}
}

func TestExecPropagatesRunnerError(t *testing.T) {
	boom := errors.New("boom")
	runner := func(context.Context, string, ...string) error { return boom }
	stream := ffmpeggo.Input("a.mp3").Output("b.mp3")
	if err := Exec(context.Background(), runner, "ffmpeg", stream); !errors.Is(err, boom) {
		t.Fatalf("expected runner error, got %v", err)
	}
}

func TestRunIncludesOutputInError(t *testing.T) {
	err := Run(context.Background(), "sh", "-c", "echo broken pipe >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("expected command output in error, got %v", err)
	}
}

func TestSeconds(t *testing.T) {
	tests := map[int]string{
		0:     "0.000",
		1500:  "1.500",
		61007: "61.007",
	}
	for ms, want := range tests {
		if got := Seconds(ms); got != want {
			t.Errorf("Seconds(%d) = %q, want %q", ms, got, want)
		}
	}
}
