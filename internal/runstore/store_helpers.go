package runstore

import (
	"database/sql"
	"errors"
	"time"
)

// timeLayout keeps a fixed fraction width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	runColumns   = "id, status, stages, story_filter, stories_total, stories_failed, started_at, finished_at"
	stageColumns = "id, run_id, story, stage, status, error_kind, error_message, started_at, finished_at"
)

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (Run, error) {
	var (
		id          string
		status      string
		stages      string
		storyFilter sql.NullString
		total       int
		failed      int
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := row.Scan(&id, &status, &stages, &storyFilter, &total, &failed, &startedRaw, &finishedRaw); err != nil {
		return Run{}, err
	}
	run := Run{
		ID:            id,
		Status:        Status(status),
		Stages:        splitStages(stages),
		StoryFilter:   storyFilter.String,
		StoriesTotal:  total,
		StoriesFailed: failed,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	run.FinishedAt = parseNullableTime(finishedRaw)
	return run, nil
}

func scanStageRun(row scanner) (StageRun, error) {
	var (
		sr          StageRun
		status      string
		kind        sql.NullString
		message     sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := row.Scan(&sr.ID, &sr.RunID, &sr.Story, &sr.Stage, &status, &kind, &message, &startedRaw, &finishedRaw); err != nil {
		return StageRun{}, err
	}
	sr.Status = Status(status)
	sr.ErrorKind = kind.String
	sr.ErrorMessage = message.String
	if started, err := parseTimeString(startedRaw); err == nil {
		sr.StartedAt = started
	}
	sr.FinishedAt = parseNullableTime(finishedRaw)
	return sr, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
