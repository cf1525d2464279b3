package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"storybuilder/internal/logging"
)

func TestMillisAddsUnitSuffixOnce(t *testing.T) {
	if got := logging.Millis("audio", 1500); got.Key != "audio_ms" || got.Value.Int64() != 1500 {
		t.Fatalf("unexpected attr %v", got)
	}
	if got := logging.Millis("movie_ms", 10); got.Key != "movie_ms" {
		t.Fatalf("expected suffix kept once, got %q", got.Key)
	}
	if got := logging.Page(3); got.Key != logging.FieldPage || got.Value.Int64() != 3 {
		t.Fatalf("unexpected page attr %v", got)
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "srt validation failed", "srt_validation_failed",
		logging.String(logging.FieldImpact, "subtitles may drift"),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "srt_validation_failed" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldImpact] != "subtitles may drift" {
		t.Fatalf("impact overwritten: %v", record[logging.FieldImpact])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
}
