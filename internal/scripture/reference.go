package scripture

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var referencePattern = regexp.MustCompile(`^([0-9]+):([0-9]+)`)

// Reference is a verse range within a single chapter.
type Reference struct {
	Chapter    int
	VerseStart int
	VerseEnd   int
}

// ParseReference resolves a pair of "chapter:verse" strings into a Reference.
// Only same-chapter ranges are supported.
func ParseReference(start, end string) (Reference, error) {
	startChapter, startVerse, err := parseChapterVerse(start)
	if err != nil {
		return Reference{}, err
	}
	endChapter, endVerse, err := parseChapterVerse(end)
	if err != nil {
		return Reference{}, err
	}
	if startChapter != endChapter {
		return Reference{}, fmt.Errorf("%w: %q to %q", ErrCrossChapterRange, start, end)
	}
	return Reference{
		Chapter:    startChapter,
		VerseStart: startVerse,
		VerseEnd:   endVerse,
	}, nil
}

// Verses returns the verse numbers covered by the reference in order.
// A reversed range yields no verses.
func (r Reference) Verses() []int {
	if r.VerseEnd < r.VerseStart {
		return nil
	}
	verses := make([]int, 0, r.VerseEnd-r.VerseStart+1)
	for v := r.VerseStart; v <= r.VerseEnd; v++ {
		verses = append(verses, v)
	}
	return verses
}

func (r Reference) String() string {
	if r.VerseStart == r.VerseEnd {
		return fmt.Sprintf("%d:%d", r.Chapter, r.VerseStart)
	}
	return fmt.Sprintf("%d:%d-%d", r.Chapter, r.VerseStart, r.VerseEnd)
}

func parseChapterVerse(value string) (int, int, error) {
	match := referencePattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedReference, value)
	}
	chapter, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: chapter in %q: %v", ErrMalformedReference, value, err)
	}
	verse, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: verse in %q: %v", ErrMalformedReference, value, err)
	}
	return chapter, verse, nil
}
