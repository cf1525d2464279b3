package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestJSONHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	handler, err := newJSONHandler(&buf, lvl, false)
	if err != nil {
		t.Fatalf("newJSONHandler: %v", err)
	}
	slog.New(handler).Warn("page rendered",
		Duration("elapsed", 1234567*time.Microsecond),
		Millis("audio", 1500),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if record["level"] != "warn" {
		t.Fatalf("level = %v", record["level"])
	}
	ts, ok := record["ts"].(string)
	if !ok || !strings.HasSuffix(ts, "Z") || len(ts) != len("2006-01-02T15:04:05.000Z") {
		t.Fatalf("unexpected ts %v", record["ts"])
	}
	if record["elapsed"] != "1.235s" {
		t.Fatalf("elapsed = %v", record["elapsed"])
	}
	if record["audio_ms"] != float64(1500) {
		t.Fatalf("audio_ms = %v", record["audio_ms"])
	}
}
