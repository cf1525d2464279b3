package scripture

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	markerChapter   = `\c`
	markerVerse     = `\v`
	markerParagraph = `\p`
	markerPoetry    = `\q`
)

var (
	pairedMarkupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\\f.*?\\f\*`),
		regexp.MustCompile(`\\e.*?\\e\*`),
		regexp.MustCompile(`\\x.*?\\x\*`),
	}
	singleMarkupPattern = regexp.MustCompile(`\\[a-z][0-9]?( [0-9]+)? ?`)
)

// StripMarkup removes footnote, endnote, and cross-reference spans plus single
// markup codes (with an optional numeric argument) from one source line.
//
//	`\v 1 In the beginning` -> `In the beginning`
func StripMarkup(line string) string {
	for _, pattern := range pairedMarkupPatterns {
		line = pattern.ReplaceAllString(line, "")
	}
	return singleMarkupPattern.ReplaceAllString(line, "")
}

// VerseTextTable holds verse text per chapter. Index [c][v] is chapter c+1,
// verse v+1.
type VerseTextTable [][]string

// ParseText scans chapter/verse-tagged source text. A chapter marker opens a
// chapter, a verse marker appends a verse, and a paragraph or poetry line with
// text continues the last verse of the current chapter on a new line.
func ParseText(raw string) (VerseTextTable, error) {
	raw = norm.NFC.String(raw)

	var table VerseTextTable
	for idx, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, markerChapter):
			table = append(table, []string{})
		case strings.HasPrefix(line, markerVerse):
			if len(table) == 0 {
				return nil, fmt.Errorf("%w: line %d: verse before any chapter marker", ErrMalformedSource, idx+1)
			}
			last := len(table) - 1
			table[last] = append(table[last], StripMarkup(line))
		case strings.HasPrefix(line, markerParagraph), strings.HasPrefix(line, markerPoetry):
			if len(table) == 0 {
				return nil, fmt.Errorf("%w: line %d: paragraph before any chapter marker", ErrMalformedSource, idx+1)
			}
			chapter := table[len(table)-1]
			if len(chapter) == 0 {
				continue
			}
			text := StripMarkup(line)
			if text == "" {
				continue
			}
			chapter[len(chapter)-1] += "\n" + text
		}
	}
	return table, nil
}

// Verse returns the text for a 1-indexed chapter and verse.
func (t VerseTextTable) Verse(chapter, verse int) (string, error) {
	if chapter < 1 || chapter > len(t) {
		return "", fmt.Errorf("%w: chapter %d of %d", ErrVerseOutOfRange, chapter, len(t))
	}
	verses := t[chapter-1]
	if verse < 1 || verse > len(verses) {
		return "", fmt.Errorf("%w: %d:%d (chapter has %d verses)", ErrVerseOutOfRange, chapter, verse, len(verses))
	}
	return verses[verse-1], nil
}

// Text joins the verses covered by ref with newlines.
func (t VerseTextTable) Text(ref Reference) (string, error) {
	verses := ref.Verses()
	parts := make([]string, 0, len(verses))
	for _, verse := range verses {
		text, err := t.Verse(ref.Chapter, verse)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}
