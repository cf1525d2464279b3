package stage

import (
	"errors"
	"testing"

	"storybuilder/internal/scripture"
	"storybuilder/internal/services"
	"storybuilder/internal/story"
)

func TestPageReferenceValid(t *testing.T) {
	ref, err := PageReference("audio", story.Page{Number: 1, RefStart: "3:4", RefEnd: "3:9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != (scripture.Reference{Chapter: 3, VerseStart: 4, VerseEnd: 9}) {
		t.Fatalf("unexpected reference %+v", ref)
	}
}

func TestPageReferenceInvalidIsValidationError(t *testing.T) {
	_, err := PageReference("audio", story.Page{Number: 2, RefStart: "3:4", RefEnd: "4:1"})
	if err == nil {
		t.Fatal("expected error for cross-chapter range")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, scripture.ErrCrossChapterRange) {
		t.Fatalf("expected cross-chapter cause, got %v", err)
	}
}

func TestBinaryHealth(t *testing.T) {
	if h := BinaryHealth("check", "sh"); !h.Ready {
		t.Fatalf("expected sh to resolve, got %+v", h)
	}
	h := BinaryHealth("check", "sh", "storybuilder-no-such-binary")
	if h.Ready || h.Name != "check" || h.Detail == "" {
		t.Fatalf("expected unhealthy record, got %+v", h)
	}
}
