package subtitles

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Aligner times text lines against an audio track.
type Aligner interface {
	Align(ctx context.Context, audioPath string, lines []string) ([]Fragment, error)
}

// Fragment is one timed region reported by an aligner. Fragments with no
// lines mark silence or padding and carry no chunk.
type Fragment struct {
	BeginMS int
	EndMS   int
	Lines   []string
}

type alignmentDoc struct {
	Fragments []struct {
		Begin secondsValue `json:"begin"`
		End   secondsValue `json:"end"`
		Lines []string     `json:"lines"`
	} `json:"fragments"`
}

// secondsValue accepts seconds encoded either as a JSON string or number.
type secondsValue float64

func (s *secondsValue) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse seconds %s: %w", data, err)
	}
	*s = secondsValue(value)
	return nil
}

// ParseAlignment decodes an aligner sync map of the form
// {"fragments":[{"begin":"0.000","end":"1.240","lines":["..."]}]}.
// Times are truncated to whole milliseconds.
func ParseAlignment(data []byte) ([]Fragment, error) {
	var doc alignmentDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse alignment: %w", err)
	}
	fragments := make([]Fragment, 0, len(doc.Fragments))
	for _, f := range doc.Fragments {
		fragments = append(fragments, Fragment{
			BeginMS: int(1000 * float64(f.Begin)),
			EndMS:   int(1000 * float64(f.End)),
			Lines:   f.Lines,
		})
	}
	return fragments, nil
}

// AlignerLines flattens chunk newlines so every chunk is exactly one line.
func AlignerLines(chunks []string) []string {
	lines := make([]string, len(chunks))
	for i, chunk := range chunks {
		lines[i] = strings.ReplaceAll(chunk, "\n", " ")
	}
	return lines
}

// MapAlignment pairs chunks with non-empty fragments by position. A count
// mismatch fails with ErrAlignmentMismatch and no cues.
func MapAlignment(chunks []string, fragments []Fragment) ([]Cue, error) {
	timed := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if len(f.Lines) == 0 {
			continue
		}
		timed = append(timed, f)
	}
	if len(timed) != len(chunks) {
		return nil, fmt.Errorf("%w: %d fragments for %d chunks", ErrAlignmentMismatch, len(timed), len(chunks))
	}
	cues := make([]Cue, len(chunks))
	for i, chunk := range chunks {
		cues[i] = Cue{Text: chunk, StartMS: timed[i].BeginMS, EndMS: timed[i].EndMS}
	}
	return cues, nil
}
