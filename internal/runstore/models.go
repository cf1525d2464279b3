package runstore

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a run or a stage execution.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusFailed marks a failure worth retrying as is (tool crash, I/O).
	StatusFailed Status = "failed"
	// StatusInvalid marks a failure that needs the inputs or config fixed first.
	StatusInvalid Status = "invalid"
)

// IsTerminal reports whether the status ends an execution.
func (s Status) IsTerminal() bool {
	return s != StatusRunning && s != ""
}

// Run is one pipeline invocation.
type Run struct {
	ID            string
	Status        Status
	Stages        []string
	StoryFilter   string
	StoriesTotal  int
	StoriesFailed int
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Duration is the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StageRun is one stage executed for one story within a run.
type StageRun struct {
	ID           int64
	RunID        string
	Story        string
	Stage        string
	Status       Status
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

func joinStages(stages []string) string {
	return strings.Join(stages, ",")
}

func splitStages(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}
