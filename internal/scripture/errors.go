package scripture

import "errors"

var (
	// ErrMalformedReference reports a reference that is not of the form "C:V".
	ErrMalformedReference = errors.New("malformed reference")
	// ErrCrossChapterRange reports a range whose endpoints are in different chapters.
	ErrCrossChapterRange = errors.New("cross-chapter range")
	// ErrInvalidTimingFormat reports a timing transcript row that cannot be parsed.
	ErrInvalidTimingFormat = errors.New("invalid timing format")
	// ErrMalformedSource reports verse text that appears before any chapter marker.
	ErrMalformedSource = errors.New("malformed text source")
	// ErrUnknownBook reports a lookup for a book that was never loaded.
	ErrUnknownBook = errors.New("unknown book")
	// ErrVerseOutOfRange reports a chapter or verse outside the loaded table.
	ErrVerseOutOfRange = errors.New("verse out of range")
)
