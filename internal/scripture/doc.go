// Package scripture loads per-book verse timing and verse text tables and
// resolves "chapter:verse" references against them.
//
// Tables are built once per run by LoadLibrary and are read-only afterwards,
// so a Library can be shared by every story and page that references a book.
//
// Key types:
//   - Reference: a same-chapter verse range parsed from two "C:V" strings
//   - VerseTimingTable: per-chapter verse spans in milliseconds
//   - VerseTextTable: per-chapter verse text with markup stripped
//   - Library: read-only map of book id to its tables
package scripture
