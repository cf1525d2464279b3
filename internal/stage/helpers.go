package stage

import (
	"fmt"
	"os/exec"

	"storybuilder/internal/scripture"
	"storybuilder/internal/services"
	"storybuilder/internal/story"
)

// PageReference resolves a page's verse range. Failures come back as
// services.ErrValidation so the story is recorded as invalid input.
func PageReference(stageName string, page story.Page) (scripture.Reference, error) {
	ref, err := page.Reference()
	if err != nil {
		return scripture.Reference{}, services.Wrap(
			services.ErrValidation, stageName, "resolve reference",
			fmt.Sprintf("Page %d has an unusable verse range %q-%q", page.Number, page.RefStart, page.RefEnd), err)
	}
	return ref, nil
}

// BinaryHealth reports whether every named binary resolves on PATH.
func BinaryHealth(name string, binaries ...string) Health {
	for _, binary := range binaries {
		if _, err := exec.LookPath(binary); err != nil {
			return Unhealthy(name, fmt.Sprintf("binary %q not found", binary))
		}
	}
	return Healthy(name)
}
