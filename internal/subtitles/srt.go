package subtitles

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"storybuilder/internal/fileutil"
)

// FormatTimestamp renders milliseconds as HH:MM:SS,mmm. Negative values clamp to zero.
func FormatTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := ms / 60_000 % 60
	seconds := ms / 1000 % 60
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// FormatSRT serializes cues numbered from 1, each block followed by a blank line.
func FormatSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(cue.StartMS), FormatTimestamp(cue.EndMS), cue.Text)
	}
	return b.String()
}

// WriteSRT atomically writes cues to path.
func WriteSRT(path string, cues []Cue) error {
	if err := fileutil.WriteFileAtomic(path, []byte(FormatSRT(cues))); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

type srtSpan struct {
	startMS int
	endMS   int
}

func countSRTCues(content string) int {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return 0
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

func srtSpans(content string) ([]srtSpan, []string) {
	var (
		spans  []srtSpan
		issues []string
	)
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			issues = append(issues, fmt.Sprintf("timestamp_parse_error: %q", line))
			continue
		}
		start, errStart := parseSRTTimestamp(parts[0])
		end, errEnd := parseSRTTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			issues = append(issues, fmt.Sprintf("timestamp_parse_error: %q", strings.TrimSpace(line)))
			continue
		}
		spans = append(spans, srtSpan{startMS: start, endMS: end})
	}
	return spans, issues
}

func parseSRTTimestamp(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return (hours*3600+minutes*60+seconds)*1000 + millis, nil
}

// ValidateSRTContent checks an SRT file for format issues. Returns a list of
// issues found; an empty slice means validation passed. videoMS enables the
// overrun check when positive.
func ValidateSRTContent(path string, videoMS int) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	content := string(data)
	if countSRTCues(content) == 0 {
		return []string{"empty_subtitle_file"}
	}

	spans, issues := srtSpans(content)
	if len(spans) == 0 {
		return append(issues, "no_valid_timestamps")
	}
	prevStart := -1
	for i, span := range spans {
		if span.endMS < span.startMS {
			issues = append(issues, fmt.Sprintf("cue_%d_ends_before_start", i+1))
		}
		if span.startMS < prevStart {
			issues = append(issues, fmt.Sprintf("cue_%d_out_of_order", i+1))
		}
		prevStart = span.startMS
	}
	if videoMS > 0 {
		last := spans[len(spans)-1].endMS
		if last > videoMS+subtitleOverrunToleranceMS {
			issues = append(issues, fmt.Sprintf("duration_mismatch: last_cue=%dms video=%dms", last, videoMS))
		}
	}
	return issues
}
