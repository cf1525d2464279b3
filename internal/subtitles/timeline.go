package subtitles

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"storybuilder/internal/config"
)

// Method selects how cue times are derived.
type Method string

const (
	// MethodInterpolate spreads each page's duration over its chunks by length.
	MethodInterpolate Method = config.SubtitleMethodInterpolate
	// MethodAeneas asks a forced aligner for chunk times.
	MethodAeneas Method = config.SubtitleMethodAeneas
)

// ParseMethod validates a configured method name.
func ParseMethod(value string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(value))); m {
	case MethodInterpolate, MethodAeneas:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, value)
	}
}

// Cue is one subtitle entry. Sequence numbers are assigned when serializing.
type Cue struct {
	Text    string
	StartMS int
	EndMS   int
}

// PageText is a page's narrated text and its rendered duration.
type PageText struct {
	Text       string
	DurationMS int
}

// PageChunks is a page's chunked text and its rendered duration.
type PageChunks struct {
	Chunks     []string
	DurationMS int
}

// ComputePadding estimates the per-transition slack the concatenated movie
// adds on top of the page durations. The slack is spread over num_pages+2
// transitions and truncated toward zero.
func ComputePadding(totalMS int, pageMS []int) int {
	sum := 0
	for _, ms := range pageMS {
		sum += ms
	}
	return (totalMS - sum) / (len(pageMS) + 2)
}

// Interpolate assigns each chunk a share of its page duration proportional
// to its character count. The clock starts at paddingMS and advances by the
// page duration plus paddingMS after each page. Per-chunk rounding is not
// corrected, so a page's cues may end a few milliseconds off its boundary.
func Interpolate(pages []PageChunks, paddingMS int) []Cue {
	var cues []Cue
	clock := paddingMS
	for _, page := range pages {
		total := 0
		for _, chunk := range page.Chunks {
			total += utf8.RuneCountInString(chunk)
		}
		current := clock
		for _, chunk := range page.Chunks {
			share := float64(page.DurationMS) * float64(utf8.RuneCountInString(chunk)) / float64(total)
			duration := int(math.RoundToEven(share))
			cues = append(cues, Cue{Text: chunk, StartMS: current, EndMS: current + duration})
			current += duration
		}
		clock += page.DurationMS + paddingMS
	}
	return cues
}

// ChunkPages chunks every page's text with the same threshold.
func ChunkPages(pages []PageText, threshold int) []PageChunks {
	out := make([]PageChunks, len(pages))
	for i, page := range pages {
		out[i] = PageChunks{Chunks: ChunkText(page.Text, threshold), DurationMS: page.DurationMS}
	}
	return out
}

// FlattenChunks concatenates page chunks in order.
func FlattenChunks(pages []PageChunks) []string {
	var chunks []string
	for _, page := range pages {
		chunks = append(chunks, page.Chunks...)
	}
	return chunks
}

// TimelineRequest carries everything BuildTimeline needs for one story.
type TimelineRequest struct {
	Method    Method
	Pages     []PageText
	TotalMS   int
	Threshold int
	// AudioPath is the narration track handed to the aligner.
	AudioPath string
}

// Timeline is the built cue list plus the values used to derive it.
type Timeline struct {
	Cues      []Cue
	PaddingMS int
	Chunks    int
}

// BuildTimeline chunks the pages and times the chunks with the requested method.
func BuildTimeline(ctx context.Context, req TimelineRequest, aligner Aligner) (Timeline, error) {
	durations := make([]int, len(req.Pages))
	for i, page := range req.Pages {
		durations[i] = page.DurationMS
	}
	padding := ComputePadding(req.TotalMS, durations)
	pages := ChunkPages(req.Pages, req.Threshold)

	switch req.Method {
	case MethodInterpolate:
		cues := Interpolate(pages, padding)
		return Timeline{Cues: cues, PaddingMS: padding, Chunks: len(cues)}, nil
	case MethodAeneas:
		if aligner == nil {
			return Timeline{}, errors.New("aeneas timing requested without an aligner")
		}
		chunks := FlattenChunks(pages)
		fragments, err := aligner.Align(ctx, req.AudioPath, AlignerLines(chunks))
		if err != nil {
			return Timeline{}, err
		}
		cues, err := MapAlignment(chunks, fragments)
		if err != nil {
			return Timeline{}, err
		}
		return Timeline{Cues: cues, PaddingMS: padding, Chunks: len(chunks)}, nil
	default:
		return Timeline{}, fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method)
	}
}
