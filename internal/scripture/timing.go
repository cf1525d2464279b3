package scripture

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const byteOrderMark = "\ufeff"

var versePrefixPattern = regexp.MustCompile(`^[0-9]+`)

// Span is an audio interval in milliseconds.
type Span struct {
	StartMS int
	EndMS   int
}

// DurationMS returns the span length.
func (s Span) DurationMS() int {
	return s.EndMS - s.StartMS
}

// VerseSpan is a Span tagged with the verse number it was collapsed from.
type VerseSpan struct {
	Span
	Verse int
}

type timingRow struct {
	startMS int
	endMS   int
	verse   int
}

// ParseTiming converts a raw per-chapter timing transcript into one span per
// verse. Each row is "start_seconds<TAB>end_seconds<TAB>label"; rows whose
// label does not begin with a digit are annotations and are skipped. Rows that
// share a verse number collapse into a single span running from the first
// row's start to the last row's end.
func ParseTiming(raw string) ([]VerseSpan, error) {
	rows, err := parseTimingRows(raw)
	if err != nil {
		return nil, err
	}

	// Flush-on-change always emits the zero-value span that was open before
	// the first row, so the first flushed entry is dropped below.
	flushed := make([]VerseSpan, 0, len(rows)+1)
	var current VerseSpan
	for _, row := range rows {
		if row.verse != current.Verse {
			flushed = append(flushed, current)
			current = VerseSpan{Span: Span{StartMS: row.startMS}, Verse: row.verse}
		}
		current.EndMS = row.endMS
	}
	flushed = append(flushed, current)

	return flushed[1:], nil
}

func parseTimingRows(raw string) ([]timingRow, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, byteOrderMark, ""))
	lines := strings.Split(raw, "\n")

	rows := make([]timingRow, 0, len(lines))
	for idx, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d: expected 3 tab-separated fields, got %d", ErrInvalidTimingFormat, idx+1, len(fields))
		}
		startMS, err := secondsToMillis(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: start: %v", ErrInvalidTimingFormat, idx+1, err)
		}
		endMS, err := secondsToMillis(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: end: %v", ErrInvalidTimingFormat, idx+1, err)
		}

		label := fields[2]
		first, _ := utf8.DecodeRuneInString(label)
		if label == "" || !unicode.IsDigit(first) {
			continue
		}
		prefix := versePrefixPattern.FindString(label)
		if prefix == "" {
			return nil, fmt.Errorf("%w: line %d: label %q has no verse number", ErrInvalidTimingFormat, idx+1, label)
		}
		verse, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: verse %q: %v", ErrInvalidTimingFormat, idx+1, prefix, err)
		}
		rows = append(rows, timingRow{startMS: startMS, endMS: endMS, verse: verse})
	}
	return rows, nil
}

// secondsToMillis truncates fractional seconds to whole milliseconds.
func secondsToMillis(value string) (int, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	return int(seconds * 1000), nil
}

// VerseTimingTable holds verse spans per chapter. Index [c][v] is chapter c+1,
// verse v+1.
type VerseTimingTable [][]Span

// NewVerseTimingTable builds a table from per-chapter parser output. The verse
// numbers on the input are discarded; position defines the verse.
func NewVerseTimingTable(chapters [][]VerseSpan) VerseTimingTable {
	table := make(VerseTimingTable, len(chapters))
	for i, spans := range chapters {
		table[i] = make([]Span, len(spans))
		for j, span := range spans {
			table[i][j] = span.Span
		}
	}
	return table
}

// Span returns the audio span for a 1-indexed chapter and verse.
func (t VerseTimingTable) Span(chapter, verse int) (Span, error) {
	if chapter < 1 || chapter > len(t) {
		return Span{}, fmt.Errorf("%w: chapter %d of %d", ErrVerseOutOfRange, chapter, len(t))
	}
	verses := t[chapter-1]
	if verse < 1 || verse > len(verses) {
		return Span{}, fmt.Errorf("%w: %d:%d (chapter has %d timed verses)", ErrVerseOutOfRange, chapter, verse, len(verses))
	}
	return verses[verse-1], nil
}

// Spans returns the spans covered by ref in verse order.
func (t VerseTimingTable) Spans(ref Reference) ([]Span, error) {
	verses := ref.Verses()
	spans := make([]Span, 0, len(verses))
	for _, verse := range verses {
		span, err := t.Span(ref.Chapter, verse)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}
