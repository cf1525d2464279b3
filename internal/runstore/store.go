package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a run id with no stored row.
var ErrNotFound = errors.New("run not found")

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the run database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("run store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure run store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// BeginRun inserts a running run row.
func (s *Store) BeginRun(ctx context.Context, id string, stages []string, storyFilter string) (*Run, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("begin run: empty id")
	}
	started := time.Now().UTC()
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, status, stages, story_filter, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(StatusRunning), joinStages(stages), nullableString(storyFilter), formatTime(started),
	)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &Run{
		ID:          id,
		Status:      StatusRunning,
		Stages:      stages,
		StoryFilter: storyFilter,
		StartedAt:   started,
	}, nil
}

// FinishRun stores the final status and story counts of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status Status, total, failed int) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, stories_total = ?, stories_failed = ?, finished_at = ? WHERE id = ?`,
		string(status), total, failed, formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireRow(res, id)
}

// BeginStage records the start of one stage for one story.
func (s *Store) BeginStage(ctx context.Context, runID, story, stage string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO stage_runs (run_id, story, stage, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, story, stage, string(StatusRunning), formatTime(time.Now().UTC()),
	)
	if err != nil {
		return 0, fmt.Errorf("begin stage: %w", err)
	}
	return res.LastInsertId()
}

// FinishStage stores a stage outcome. kind and message are empty on success.
func (s *Store) FinishStage(ctx context.Context, id int64, status Status, kind, message string) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE stage_runs SET status = ?, error_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(status), nullableString(kind), nullableString(message), formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("finish stage: %w", err)
	}
	return nil
}

// AbandonRunning fails runs and stages left running by a process that exited
// without finishing them. It returns the number of runs updated.
func (s *Store) AbandonRunning(ctx context.Context) (int64, error) {
	finished := formatTime(time.Now().UTC())
	if _, err := s.execWithRetry(ctx,
		`UPDATE stage_runs SET status = ?, error_kind = 'interrupted', error_message = 'process exited before the stage finished', finished_at = ? WHERE status = ?`,
		string(StatusFailed), finished, string(StatusRunning),
	); err != nil {
		return 0, fmt.Errorf("abandon stages: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE status = ?`,
		string(StatusFailed), finished, string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("abandon runs: %w", err)
	}
	return res.RowsAffected()
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// StageRuns returns the stage rows of a run in execution order.
func (s *Store) StageRuns(ctx context.Context, runID string) ([]StageRun, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+stageColumns+` FROM stage_runs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list stage runs: %w", err)
	}
	defer rows.Close()

	var out []StageRun
	for rows.Next() {
		sr, err := scanStageRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// Prune deletes runs that started before cutoff together with their stages.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	bound := formatTime(cutoff)
	if _, err := s.execWithRetry(ctx,
		`DELETE FROM stage_runs WHERE run_id IN (SELECT id FROM runs WHERE started_at < ? AND status != ?)`,
		bound, string(StatusRunning)); err != nil {
		return 0, fmt.Errorf("prune stage runs: %w", err)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM runs WHERE started_at < ? AND status != ?`,
		bound, string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
