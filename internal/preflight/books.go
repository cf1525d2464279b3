package preflight

import (
	"fmt"

	"storybuilder/internal/scripture"
)

// CheckBookSources verifies that every chapter timing transcript and
// recording of book exists, plus the text source when withText is set.
// Missing chapters are summarized into a single result per source kind.
func CheckBookSources(book scripture.Book, withText bool) []Result {
	results := []Result{
		checkChapters(fmt.Sprintf("Book %s timing", book.ID), book.NumChapters, book.TimingPath),
		checkChapters(fmt.Sprintf("Book %s audio", book.ID), book.NumChapters, book.AudioPath),
	}
	if withText {
		results = append(results, CheckFileReadable(fmt.Sprintf("Book %s text", book.ID), book.TextPath))
	}
	return results
}

func checkChapters(name string, chapters int, pathFor func(int) string) Result {
	if chapters < 1 {
		return Result{Name: name, Detail: "no chapters configured"}
	}
	var missing []int
	firstDetail := ""
	for chapter := 1; chapter <= chapters; chapter++ {
		result := CheckFileReadable(name, pathFor(chapter))
		if result.Passed {
			continue
		}
		if firstDetail == "" {
			firstDetail = result.Detail
		}
		missing = append(missing, chapter)
	}
	if len(missing) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d chapters present", chapters)}
	}
	return Result{
		Name:   name,
		Detail: fmt.Sprintf("%d of %d chapters missing (first: %s)", len(missing), chapters, firstDetail),
	}
}
