package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storybuilder/internal/logging"
	"storybuilder/internal/runstore"
	"storybuilder/internal/services"
	"storybuilder/internal/stage"
	"storybuilder/internal/story"
)

// Options controls stage execution and run history persistence.
type Options struct {
	Logger    *slog.Logger
	Store     *runstore.Store
	Handler   stage.Handler
	StageName string
	RunID     string
	Story     *story.Story
}

// Run prepares and executes one stage for one story, recording the outcome
// in the run store. The stage error is returned unchanged.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return errors.New("run store is required")
	}
	if opts.Story == nil {
		return errors.New("story is required")
	}

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("ref_book", strings.TrimSpace(opts.Story.RefBook)),
		logging.Int("pages", len(opts.Story.Pages)),
	)

	recordID, err := opts.Store.BeginStage(stageCtx, opts.RunID, opts.Story.Title, opts.StageName)
	if err != nil {
		return fmt.Errorf("persist stage start: %w", err)
	}

	started := time.Now()
	if err := opts.Handler.Prepare(stageCtx, opts.Story); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, recordID, err)
	}
	if err := opts.Handler.Execute(stageCtx, opts.Story); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, recordID, err)
	}

	if err := opts.Store.FinishStage(stageCtx, recordID, runstore.StatusCompleted, "", ""); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store *runstore.Store, recordID int64, stageErr error) error {
	status := services.FailureStatus(stageErr)
	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = "stage failed"
	}

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(status)),
		logging.String("error_kind", details.Kind),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	// A cancelled context would also fail the write; record with a fresh one.
	if err := store.FinishStage(context.WithoutCancel(ctx), recordID, status, details.Kind, message); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	return stageErr
}
