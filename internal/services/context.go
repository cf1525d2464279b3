package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	storyKey contextKey = "story"
	stageKey contextKey = "stage"
	pageKey  contextKey = "page"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStory annotates context with the story title being processed.
func WithStory(ctx context.Context, title string) context.Context {
	if title == "" {
		return ctx
	}
	return context.WithValue(ctx, storyKey, title)
}

// StoryFromContext returns the story title if present.
func StoryFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(storyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithPage annotates context with the 1-based page number.
func WithPage(ctx context.Context, page int) context.Context {
	if page <= 0 {
		return ctx
	}
	return context.WithValue(ctx, pageKey, page)
}

// PageFromContext extracts the page number if present.
func PageFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(pageKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
