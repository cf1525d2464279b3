package stage

import (
	"context"
	"log/slog"

	"storybuilder/internal/story"
)

// Handler describes the contract the pipeline needs from each stage.
type Handler interface {
	Prepare(context.Context, *story.Story) error
	Execute(context.Context, *story.Story) error
	HealthCheck(context.Context) Health
}

// LoggerAware stages accept a story-scoped logger before they run.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
