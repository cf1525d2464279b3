package story

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storybuilder/internal/scripture"
	"storybuilder/internal/textutil"
)

// ErrInvalidStory marks a story definition that cannot be rendered.
var ErrInvalidStory = errors.New("invalid story")

// Rect is an illustration viewport given as fractions of the image: the
// top-left corner, the width, and the size that drives the zoom level.
type Rect struct {
	X     float64
	Y     float64
	Width float64
	Size  float64
}

// ParseRect decodes a space-separated "x y width size" viewport.
func ParseRect(value string) (Rect, error) {
	fields := strings.Fields(value)
	if len(fields) != 4 {
		return Rect{}, fmt.Errorf("rect %q: expected 4 numbers, got %d", value, len(fields))
	}
	var nums [4]float64
	for i, field := range fields {
		n, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Rect{}, fmt.Errorf("rect %q: %w", value, err)
		}
		nums[i] = n
	}
	return Rect{X: nums[0], Y: nums[1], Width: nums[2], Size: nums[3]}, nil
}

func (r Rect) String() string {
	return strconv.FormatFloat(r.X, 'g', -1, 64) + " " +
		strconv.FormatFloat(r.Y, 'g', -1, 64) + " " +
		strconv.FormatFloat(r.Width, 'g', -1, 64) + " " +
		strconv.FormatFloat(r.Size, 'g', -1, 64)
}

// Page is one illustrated, narrated page of a story.
type Page struct {
	Number      int
	RefStart    string
	RefEnd      string
	Image       string
	InitialRect Rect
	FinalRect   Rect

	rectErr error
}

// Reference resolves the page's verse range.
func (p Page) Reference() (scripture.Reference, error) {
	return scripture.ParseReference(p.RefStart, p.RefEnd)
}

// Story is a titled sequence of pages narrated from one book.
type Story struct {
	Title   string
	RefBook string
	Pages   []Page
}

// FileStem is the title-derived name shared by every artifact of the story.
func (s *Story) FileStem() string {
	return textutil.FormatTitle(s.Title)
}

// Validate reports structural problems that would break rendering. Verse
// ranges are checked for syntax only; whether they exist is a library question.
func (s *Story) Validate() error {
	var problems []error
	if strings.TrimSpace(s.Title) == "" {
		problems = append(problems, errors.New("title is empty"))
	} else if s.FileStem() == "" {
		problems = append(problems, fmt.Errorf("title %q has no usable characters", s.Title))
	}
	if strings.TrimSpace(s.RefBook) == "" {
		problems = append(problems, errors.New("ref_book is empty"))
	}
	if len(s.Pages) == 0 {
		problems = append(problems, errors.New("story has no pages"))
	}
	seen := make(map[int]bool, len(s.Pages))
	for _, page := range s.Pages {
		if page.Number <= 0 {
			problems = append(problems, fmt.Errorf("page number %d must be positive", page.Number))
		}
		if seen[page.Number] {
			problems = append(problems, fmt.Errorf("page %d listed twice", page.Number))
		}
		seen[page.Number] = true
		if _, err := page.Reference(); err != nil {
			problems = append(problems, fmt.Errorf("page %d: %w", page.Number, err))
		}
		if strings.TrimSpace(page.Image) == "" {
			problems = append(problems, fmt.Errorf("page %d: img_src is empty", page.Number))
		}
		if page.rectErr != nil {
			problems = append(problems, fmt.Errorf("page %d: %w", page.Number, page.rectErr))
		} else if page.InitialRect.Size <= 0 || page.FinalRect.Size <= 0 {
			problems = append(problems, fmt.Errorf("page %d: rect size must be positive", page.Number))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidStory, s.Title, errors.Join(problems...))
}
