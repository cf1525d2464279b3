package scripture

import (
	"errors"
	"testing"
)

func TestParseTimingCollapsesSubVerseRows(t *testing.T) {
	raw := "0.0\t1.2\t1 In\n1.2\t2.5\t1 the\n2.5\t4.0\t2 beginning\n"

	spans, err := ParseTiming(raw)
	if err != nil {
		t.Fatalf("ParseTiming: %v", err)
	}
	want := []VerseSpan{
		{Span: Span{StartMS: 0, EndMS: 2500}, Verse: 1},
		{Span: Span{StartMS: 2500, EndMS: 4000}, Verse: 2},
	}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d: %+v", len(want), len(spans), spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestParseTimingSingleVerse(t *testing.T) {
	raw := "0.25\t1.0\t1a\n1.0\t1.75\t1b\n1.75\t3.5\t1c"

	spans, err := ParseTiming(raw)
	if err != nil {
		t.Fatalf("ParseTiming: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].StartMS != 250 || spans[0].EndMS != 3500 {
		t.Fatalf("unexpected span %+v", spans[0])
	}
}

func TestParseTimingSkipsAnnotationsAndBOM(t *testing.T) {
	raw := "\ufeff  0.0\t0.8\tHeading\n0.8\t2.0\t1 First\n2.0\t2.2\t<pause>\n2.2\t3.9\t2 Second\r\n3.9\t5.0\t3 Third\n\n"

	spans, err := ParseTiming(raw)
	if err != nil {
		t.Fatalf("ParseTiming: %v", err)
	}
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].StartMS != 800 || spans[0].EndMS != 2000 {
		t.Errorf("verse 1 span = %+v", spans[0])
	}
	if spans[1].StartMS != 2200 || spans[1].EndMS != 3900 {
		t.Errorf("verse 2 span = %+v", spans[1])
	}
	for i, span := range spans {
		if span.Verse != i+1 {
			t.Errorf("span %d verse = %d", i, span.Verse)
		}
	}
}

func TestParseTimingTruncatesMilliseconds(t *testing.T) {
	spans, err := ParseTiming("0.0009\t1.2349\t1 x")
	if err != nil {
		t.Fatalf("ParseTiming: %v", err)
	}
	if spans[0].StartMS != 0 || spans[0].EndMS != 1234 {
		t.Fatalf("expected truncation, got %+v", spans[0])
	}
}

func TestParseTimingVerseCountMatchesDistinctLabels(t *testing.T) {
	raw := "0\t1\t1\n1\t2\t2\n2\t3\t2\n3\t4\t3\n4\t5\t4\n5\t6\t4"
	spans, err := ParseTiming(raw)
	if err != nil {
		t.Fatalf("ParseTiming: %v", err)
	}
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(spans))
	}
}

func TestParseTimingLeadingVerseZeroIsDropped(t *testing.T) {
	// A verse-0 row never triggers a flush, so it merges into the priming span.
	raw := "0\t1.5\t0 title\n1.5\t3\t1 text"
	spans, err := ParseTiming(raw)
	if err != nil {
		t.Fatalf("ParseTiming: %v", err)
	}
	if len(spans) != 1 || spans[0].Verse != 1 || spans[0].StartMS != 1500 {
		t.Fatalf("unexpected spans %+v", spans)
	}
}

func TestParseTimingRejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"missing field":   "0.0\t1.0",
		"bad start":       "zero\t1.0\t1 a",
		"bad end":         "0.0\tone\t1 a",
		"blank line":      "0.0\t1.0\t1 a\n\n1.0\t2.0\t2 b",
		"empty":           "",
		"non-ascii digit": "0.0\t1.0\t١ a",
	}
	for name, raw := range cases {
		if _, err := ParseTiming(raw); !errors.Is(err, ErrInvalidTimingFormat) {
			t.Errorf("%s: expected ErrInvalidTimingFormat, got %v", name, err)
		}
	}
}

func TestVerseTimingTableSpans(t *testing.T) {
	table := NewVerseTimingTable([][]VerseSpan{
		{{Span: Span{0, 1000}, Verse: 1}, {Span: Span{1000, 2500}, Verse: 2}, {Span: Span{2500, 3000}, Verse: 3}},
		{{Span: Span{0, 800}, Verse: 1}},
	})

	spans, err := table.Spans(Reference{Chapter: 1, VerseStart: 2, VerseEnd: 3})
	if err != nil {
		t.Fatalf("Spans: %v", err)
	}
	if len(spans) != 2 || spans[0] != (Span{1000, 2500}) || spans[1] != (Span{2500, 3000}) {
		t.Fatalf("unexpected spans %+v", spans)
	}

	if _, err := table.Spans(Reference{Chapter: 2, VerseStart: 1, VerseEnd: 2}); !errors.Is(err, ErrVerseOutOfRange) {
		t.Fatalf("expected ErrVerseOutOfRange, got %v", err)
	}
	if _, err := table.Span(3, 1); !errors.Is(err, ErrVerseOutOfRange) {
		t.Fatalf("expected ErrVerseOutOfRange for chapter, got %v", err)
	}
}
