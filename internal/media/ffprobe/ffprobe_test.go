package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "AUDIO"},
		},
		Format: Format{
			Duration: "123.4567",
		},
	}
	if !result.HasStream("video") || !result.HasStream("audio") {
		t.Fatalf("expected both stream types, got %+v", result.Streams)
	}
	if result.HasStream("subtitle") {
		t.Fatal("unexpected subtitle stream")
	}
	if result.DurationSeconds() != 123.4567 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	ms, err := result.DurationMS()
	if err != nil {
		t.Fatalf("DurationMS: %v", err)
	}
	if ms != 123456 {
		t.Fatalf("expected truncated 123456 ms, got %d", ms)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if _, err := result.DurationMS(); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
	if _, err := (Result{}).DurationMS(); err == nil {
		t.Fatal("expected error for missing duration")
	}
}

func TestAudioDurationPrefersAudioStream(t *testing.T) {
	cases := []struct {
		name   string
		result Result
		want   int
	}{
		{
			name: "audio shorter than video",
			result: Result{
				Streams: []Stream{{CodecType: "video", Duration: "4.040000"}, {CodecType: "audio", Duration: "3.996735"}},
				Format:  Format{Duration: "4.040000"},
			},
			want: 3996,
		},
		{
			name: "audio stream without duration",
			result: Result{
				Streams: []Stream{{CodecType: "video", Duration: "4.04"}, {CodecType: "audio"}},
				Format:  Format{Duration: "4.04"},
			},
			want: 4040,
		},
		{
			name:   "no streams",
			result: Result{Format: Format{Duration: "1.5"}},
			want:   1500,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.result.AudioDurationMS()
			if err != nil || got != tc.want {
				t.Fatalf("AudioDurationMS = %d, %v; want %d", got, err, tc.want)
			}
		})
	}
	if _, err := (Result{Streams: []Stream{{CodecType: "audio", Duration: "bad"}}}).AudioDurationMS(); err == nil {
		t.Fatal("expected error when neither stream nor container has a duration")
	}
}

func TestInspectDecodesStubOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	payload := `{"streams":[{"index":0,"codec_type":"video","duration":"12.533333"},{"index":1,"codec_type":"audio","duration":"12.48"}],"format":{"filename":"movie.mp4","duration":"12.533333"}}`
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho '"+payload+"'\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	probe := NewProber(script)
	ms, err := probe.AudioDurationMS(context.Background(), "movie.mp4")
	if err != nil || ms != 12480 {
		t.Fatalf("AudioDurationMS = %d, %v; want the audio stream's 12480", ms, err)
	}
	result, err := probe(context.Background(), "movie.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !result.HasStream("audio") {
		t.Fatal("expected an audio stream")
	}
}

func TestInspectReportsStderr(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'movie.mp4: No such file' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	_, err := Inspect(context.Background(), script, "movie.mp4")
	var exitErr interface{ ExitCode() int }
	if err == nil || !errors.As(err, &exitErr) {
		t.Fatalf("expected exit error, got %v", err)
	}
}

func TestProberDurationPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	probe := Prober(func(context.Context, string) (Result, error) { return Result{}, boom })
	if _, err := probe.AudioDurationMS(context.Background(), "x.mp4"); !errors.Is(err, boom) {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
