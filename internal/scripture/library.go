package scripture

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var chapterPlaceholder = regexp.MustCompile(`\[(n+)\]`)

// Book describes where a book's per-chapter sources live. Timing and audio
// templates use "[nnn]" placeholders for the zero-padded chapter number, where
// the count of n's is the padding width.
type Book struct {
	ID             string
	NumChapters    int
	TimingTemplate string
	AudioTemplate  string
	TextPath       string
}

// ExpandChapterTemplate substitutes chapter into every "[n...]" placeholder.
func ExpandChapterTemplate(template string, chapter int) string {
	return chapterPlaceholder.ReplaceAllStringFunc(template, func(match string) string {
		width := len(match) - 2
		return fmt.Sprintf("%0*d", width, chapter)
	})
}

// TimingPath returns the timing transcript path for a 1-indexed chapter.
func (b Book) TimingPath(chapter int) string {
	return ExpandChapterTemplate(b.TimingTemplate, chapter)
}

// AudioPath returns the chapter recording path for a 1-indexed chapter.
func (b Book) AudioPath(chapter int) string {
	return ExpandChapterTemplate(b.AudioTemplate, chapter)
}

// BookTables holds the loaded lookup tables for one book. Either table may be
// nil when the caller did not ask for it.
type BookTables struct {
	Book   Book
	Timing VerseTimingTable
	Text   VerseTextTable
}

// AudioSpan locates one verse of narration inside a chapter recording.
type AudioSpan struct {
	Source string
	Span
}

// LoadOptions selects which tables LoadLibrary builds.
type LoadOptions struct {
	Timing bool
	Text   bool
}

// Library is a read-only map from book id to loaded tables.
type Library struct {
	books map[string]*BookTables
}

// NewLibrary wraps already-built tables. Later entries win on duplicate ids.
func NewLibrary(tables ...*BookTables) *Library {
	lib := &Library{books: make(map[string]*BookTables, len(tables))}
	for _, t := range tables {
		if t == nil {
			continue
		}
		lib.books[t.Book.ID] = t
	}
	return lib
}

// LoadLibrary reads the requested tables for every book from disk.
func LoadLibrary(books []Book, opts LoadOptions) (*Library, error) {
	lib := &Library{books: make(map[string]*BookTables, len(books))}
	for _, book := range books {
		tables, err := LoadBook(book, opts)
		if err != nil {
			return nil, err
		}
		lib.books[book.ID] = tables
	}
	return lib, nil
}

// LoadBook reads the requested tables for a single book.
func LoadBook(book Book, opts LoadOptions) (*BookTables, error) {
	tables := &BookTables{Book: book}
	if opts.Timing {
		timing, err := LoadTimingTable(book)
		if err != nil {
			return nil, err
		}
		tables.Timing = timing
	}
	if opts.Text {
		text, err := LoadTextTable(book)
		if err != nil {
			return nil, err
		}
		tables.Text = text
	}
	return tables, nil
}

// LoadTimingTable parses every chapter transcript of book in chapter order.
func LoadTimingTable(book Book) (VerseTimingTable, error) {
	chapters := make([][]VerseSpan, 0, book.NumChapters)
	for chapter := 1; chapter <= book.NumChapters; chapter++ {
		path := book.TimingPath(chapter)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("book %s: read timing for chapter %d: %w", book.ID, chapter, err)
		}
		spans, err := ParseTiming(string(data))
		if err != nil {
			return nil, fmt.Errorf("book %s: %s: %w", book.ID, path, err)
		}
		chapters = append(chapters, spans)
	}
	return NewVerseTimingTable(chapters), nil
}

// LoadTextTable parses the book's text source.
func LoadTextTable(book Book) (VerseTextTable, error) {
	data, err := os.ReadFile(book.TextPath)
	if err != nil {
		return nil, fmt.Errorf("book %s: read text: %w", book.ID, err)
	}
	text, err := ParseText(string(data))
	if err != nil {
		return nil, fmt.Errorf("book %s: %s: %w", book.ID, book.TextPath, err)
	}
	return text, nil
}

// Books returns the loaded book ids in sorted order.
func (l *Library) Books() []string {
	ids := make([]string, 0, len(l.books))
	for id := range l.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Book returns the tables for id.
func (l *Library) Book(id string) (*BookTables, error) {
	if l != nil {
		if tables, ok := l.books[strings.TrimSpace(id)]; ok {
			return tables, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBook, id)
}

// AudioSpans resolves ref to verse spans inside the book's chapter recording.
func (l *Library) AudioSpans(bookID string, ref Reference) ([]AudioSpan, error) {
	tables, err := l.Book(bookID)
	if err != nil {
		return nil, err
	}
	if tables.Timing == nil {
		return nil, fmt.Errorf("book %s: timing table not loaded", bookID)
	}
	spans, err := tables.Timing.Spans(ref)
	if err != nil {
		return nil, fmt.Errorf("book %s %s: %w", bookID, ref, err)
	}
	source := tables.Book.AudioPath(ref.Chapter)
	out := make([]AudioSpan, len(spans))
	for i, span := range spans {
		out[i] = AudioSpan{Source: source, Span: span}
	}
	return out, nil
}

// Text resolves ref to newline-joined verse text.
func (l *Library) Text(bookID string, ref Reference) (string, error) {
	tables, err := l.Book(bookID)
	if err != nil {
		return "", err
	}
	if tables.Text == nil {
		return "", fmt.Errorf("book %s: text table not loaded", bookID)
	}
	text, err := tables.Text.Text(ref)
	if err != nil {
		return "", fmt.Errorf("book %s %s: %w", bookID, ref, err)
	}
	return text, nil
}
