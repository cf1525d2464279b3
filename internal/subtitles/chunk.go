package subtitles

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// terminalPunctuation matches a run of sentence or clause punctuation plus any
// closing quotes and spaces that follow it.
var terminalPunctuation = regexp.MustCompile(`[!.,?]+[’'” "]*`)

// ChunkText splits text into caption-sized chunks. Pieces end after terminal
// punctuation; pieces are joined with a space until adding the next one would
// push the chunk past threshold characters. A single piece longer than the
// threshold becomes its own chunk. Newlines inside text start a new piece and
// are kept inside the chunk.
func ChunkText(text string, threshold int) []string {
	if threshold < 0 {
		threshold = 0
	}
	var (
		chunks  []string
		current string
	)
	for _, piece := range splitPieces(text) {
		if piece == "" {
			continue
		}
		candidate := joinPiece(current, piece)
		if strings.TrimSpace(current) != "" && runeLen(candidate) > threshold {
			chunks = append(chunks, strings.TrimSpace(current))
			candidate = piece
		}
		current = candidate
	}
	if last := strings.TrimSpace(current); last != "" {
		chunks = append(chunks, last)
	}
	return chunks
}

// splitPieces breaks text into lines, and each line into pieces ending at
// terminal punctuation. Continuation lines keep a leading newline.
func splitPieces(text string) []string {
	var pieces []string
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			line = "\n" + line
		}
		prev := 0
		for _, loc := range terminalPunctuation.FindAllStringIndex(line, -1) {
			pieces = append(pieces, trimRight(line[prev:loc[1]]))
			prev = loc[1]
		}
		pieces = append(pieces, trimRight(line[prev:]))
	}
	return pieces
}

func joinPiece(current, piece string) string {
	if current == "" {
		return piece
	}
	if strings.HasPrefix(piece, "\n") {
		return current + piece
	}
	return current + " " + piece
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
