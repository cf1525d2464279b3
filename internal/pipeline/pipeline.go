package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"storybuilder/internal/audio"
	"storybuilder/internal/config"
	"storybuilder/internal/logging"
	"storybuilder/internal/runstore"
	"storybuilder/internal/scripture"
	"storybuilder/internal/services"
	"storybuilder/internal/stage"
	"storybuilder/internal/stageexec"
	"storybuilder/internal/story"
	"storybuilder/internal/subtitles"
	"storybuilder/internal/video"
)

// ErrBusy reports that another run holds the scratch area lock.
var ErrBusy = errors.New("another storybuilder run is in progress")

// ErrStoryNotFound reports a story filter that matched nothing.
var ErrStoryNotFound = errors.New("story not found")

const validateStage = "validate"

// HandlerFactory builds the handler for one stage.
type HandlerFactory func(name string, cfg *config.Config, library *scripture.Library, logger *slog.Logger) (stage.Handler, error)

// DefaultHandlers builds the production stage handlers.
func DefaultHandlers(name string, cfg *config.Config, library *scripture.Library, logger *slog.Logger) (stage.Handler, error) {
	switch name {
	case StageAudio:
		return audio.NewStage(cfg, library, logger), nil
	case StageVideo:
		return video.NewStage(cfg, logger), nil
	case StageSubtitles:
		return subtitles.NewStage(cfg, library, logger), nil
	default:
		return nil, fmt.Errorf("unknown stage %q", name)
	}
}

// Options selects what a run processes.
type Options struct {
	Stages []string
	Story  string
}

// StoryResult is the outcome of one story.
type StoryResult struct {
	Title string
	// Stage is the stage that failed, empty on success.
	Stage string
	Err   error
}

// Failed reports whether the story stopped on an error.
func (r StoryResult) Failed() bool {
	return r.Err != nil
}

// Summary reports a finished run.
type Summary struct {
	RunID    string
	Stages   []string
	Results  []StoryResult
	Duration time.Duration
}

// Failed counts failed stories.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Runner executes pipeline runs.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	handlers HandlerFactory
	newID    func() string
}

// New constructs a Runner with the production stage handlers.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		handlers: DefaultHandlers,
		newID:    uuid.NewString,
	}
}

// WithHandlerFactory replaces how stage handlers are built.
func (r *Runner) WithHandlerFactory(f HandlerFactory) {
	if r != nil && f != nil {
		r.handlers = f
	}
}

// Run processes the selected stories. The returned error covers setup
// problems only; per-story failures are reported in the Summary.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	started := time.Now()
	stages, err := ParseStages(opts.Stages)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "select stages", "Invalid stage selection", err)
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "ensure directories", "Failed to create work directories", err)
	}

	lock := flock.New(r.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, fmt.Errorf("%w (lock %s)", ErrBusy, r.cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	stories, err := r.selectStories(opts.Story)
	if err != nil {
		return Summary{}, err
	}

	store, err := runstore.Open(r.cfg.RunStorePath())
	if err != nil {
		return Summary{}, fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()
	if n, err := store.AbandonRunning(ctx); err != nil {
		return Summary{}, err
	} else if n > 0 {
		logging.WarnWithContext(r.logger, "previous runs did not finish", "runs_abandoned",
			logging.Int64("runs", n),
			logging.String(logging.FieldImpact, "their stage rows are recorded as failed"),
		)
	}

	runID := r.newID()
	if _, err := store.BeginRun(ctx, runID, stages, opts.Story); err != nil {
		return Summary{}, err
	}
	runCtx := services.WithRunID(ctx, runID)
	runLogger := logging.WithContext(runCtx, r.logger)
	runLogger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Any("stages", stages),
		logging.Int("stories", len(stories)),
	)

	summary := Summary{RunID: runID, Stages: stages}
	library, bookErrs := r.loadLibrary(runLogger, stories, stages)
	handlers := make(map[string]stage.Handler, len(stages))
	for _, name := range stages {
		h, err := r.handlers(name, r.cfg, library, runLogger)
		if err != nil {
			_ = store.FinishRun(context.WithoutCancel(ctx), runID, runstore.StatusFailed, 0, 0)
			return summary, err
		}
		handlers[name] = h
	}

	for i := range stories {
		if runCtx.Err() != nil {
			break
		}
		st := &stories[i]
		result := r.runStory(runCtx, store, runID, st, stages, handlers, bookErrs)
		summary.Results = append(summary.Results, result)
	}

	status := runstore.StatusCompleted
	if summary.Failed() > 0 || runCtx.Err() != nil {
		status = runstore.StatusFailed
	}
	if err := store.FinishRun(context.WithoutCancel(ctx), runID, status, len(summary.Results), summary.Failed()); err != nil {
		runLogger.Error("failed to persist run result", logging.Error(err))
	}
	summary.Duration = time.Since(started)

	runLogger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", string(status)),
		logging.Int("stories", len(summary.Results)),
		logging.Int("failed", summary.Failed()),
		logging.Duration("elapsed", summary.Duration),
	)
	if err := runCtx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) selectStories(filter string) ([]story.Story, error) {
	stories, err := story.LoadCollection(r.cfg.Paths.StorySrc)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "load stories", "Story collection is unreadable", err)
	}
	if filter == "" {
		return stories, nil
	}
	found, ok := story.Find(stories, filter)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStoryNotFound, filter)
	}
	return []story.Story{*found}, nil
}

// loadLibrary loads the books the stories reference. Books that fail to load
// are returned in the error map so only their stories fail.
func (r *Runner) loadLibrary(logger *slog.Logger, stories []story.Story, stages []string) (*scripture.Library, map[string]error) {
	opts := scripture.LoadOptions{
		Timing: slices.Contains(stages, StageAudio),
		Text:   slices.Contains(stages, StageSubtitles) && r.cfg.Subtitles.Enabled,
	}
	bookErrs := make(map[string]error)
	if !opts.Timing && !opts.Text {
		return scripture.NewLibrary(), bookErrs
	}

	configured := make(map[string]scripture.Book)
	for _, book := range r.cfg.ScriptureBooks() {
		configured[book.ID] = book
	}
	var tables []*scripture.BookTables
	for _, id := range referencedBooks(stories) {
		book, ok := configured[id]
		if !ok {
			bookErrs[id] = services.Wrap(services.ErrConfiguration, "pipeline", "load book",
				fmt.Sprintf("Book %s has no [books.%s] section", id, id), scripture.ErrUnknownBook)
			continue
		}
		loadStarted := time.Now()
		t, err := scripture.LoadBook(book, opts)
		if err != nil {
			bookErrs[id] = services.Wrap(services.ErrValidation, "pipeline", "load book",
				fmt.Sprintf("Book %s sources are unusable", id), err)
			logging.ErrorWithContext(logger, "book failed to load", "book_load_failed",
				logging.String("book", id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the timing, audio, and text paths of this book"),
			)
			continue
		}
		logger.Info("book loaded",
			logging.String(logging.FieldEventType, "book_loaded"),
			logging.String("book", id),
			logging.Int("chapters", book.NumChapters),
			logging.Duration("elapsed", time.Since(loadStarted)),
		)
		tables = append(tables, t)
	}
	return scripture.NewLibrary(tables...), bookErrs
}

func referencedBooks(stories []story.Story) []string {
	var ids []string
	for _, st := range stories {
		if st.RefBook != "" && !slices.Contains(ids, st.RefBook) {
			ids = append(ids, st.RefBook)
		}
	}
	slices.Sort(ids)
	return ids
}

func (r *Runner) runStory(ctx context.Context, store *runstore.Store, runID string, st *story.Story, stages []string, handlers map[string]stage.Handler, bookErrs map[string]error) StoryResult {
	storyCtx := services.WithStory(ctx, st.Title)
	storyLogger := logging.WithContext(storyCtx, r.logger)
	result := StoryResult{Title: st.Title}

	invalid := st.Validate()
	if invalid == nil {
		invalid = bookErrs[st.RefBook]
	} else {
		invalid = services.Wrap(services.ErrValidation, validateStage, "validate story", "Story definition is invalid", invalid)
	}
	if invalid != nil {
		r.recordInvalid(storyCtx, storyLogger, store, runID, st.Title, invalid)
		result.Stage = validateStage
		result.Err = invalid
		return result
	}

	for _, name := range stages {
		err := stageexec.Run(storyCtx, stageexec.Options{
			Logger:    storyLogger,
			Store:     store,
			Handler:   handlers[name],
			StageName: name,
			RunID:     runID,
			Story:     st,
		})
		if err != nil {
			result.Stage = name
			result.Err = err
			return result
		}
	}
	return result
}

func (r *Runner) recordInvalid(ctx context.Context, logger *slog.Logger, store *runstore.Store, runID, title string, err error) {
	details := services.Details(err)
	logging.ErrorWithContext(logger, "story skipped", "story_invalid",
		logging.String("error_message", details.Message),
		logging.String(logging.FieldErrorHint, "fix the story definition or book config and rerun"),
	)
	id, serr := store.BeginStage(ctx, runID, title, validateStage)
	if serr != nil {
		logger.Error("failed to record invalid story", logging.Error(serr))
		return
	}
	if serr := store.FinishStage(ctx, id, services.FailureStatus(err), details.Kind, details.Message); serr != nil {
		logger.Error("failed to record invalid story", logging.Error(serr))
	}
}
