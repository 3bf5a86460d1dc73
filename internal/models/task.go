package models

import (
	"fmt"
	"time"
)

// Action names the operation a migration task performs against the remote.
type Action string

const (
	// ActionCopy creates a fresh copy of the source entry under the target parent.
	ActionCopy Action = "copy"
	// ActionRelink records an existing target entry as the counterpart; no remote write.
	ActionRelink Action = "relink"
	// ActionSkip leaves the source entry untouched.
	ActionSkip Action = "skip"
	// ActionReview flags an entry a person must resolve before it can migrate.
	ActionReview Action = "needs-review"
	// ActionDelete removes the source entry after its copy is confirmed.
	ActionDelete Action = "delete"
)

// ProducesTarget reports whether the action yields a target counterpart.
func (a Action) ProducesTarget() bool {
	return a == ActionCopy || a == ActionRelink
}

// Status tracks a run or task through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// MigrationTask is one planned unit of work. Tasks carry the depth of their
// source entry so the executor can release them in parent-before-child waves
// (and child-before-parent for deletes).
type MigrationTask struct {
	SourceID string
	// TargetID is set for relink tasks at plan time and filled in by the
	// executor once a copy lands.
	TargetID string
	Name     string
	Kind     Kind
	Action   Action
	Depth    int
	// Reason is a short operator-facing explanation of why the action was chosen.
	Reason string
}

func (t MigrationTask) String() string {
	return fmt.Sprintf("%s %s '%s'", t.Action, t.Kind, t.Name)
}

// Run is a persisted record of one plan or apply invocation.
type Run struct {
	RunID         string
	Sequence      int64
	SourceAccount string
	TargetAccount string
	Status        Status
	TasksTotal    int
	TasksDone     int
	TasksFailed   int
	ErrorMessage  string
	StartedAt     time.Time
	CompletedAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key returns the run's unique identifier.
func (r *Run) Key() string {
	return r.RunID
}

// Validate checks the run's required fields.
func (r *Run) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.SourceAccount == "" {
		return fmt.Errorf("source account is required")
	}
	if r.TargetAccount == "" {
		return fmt.Errorf("target account is required")
	}
	switch r.Status {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid run status '%s'", r.Status)
	}
}

// TaskRecord is the persisted form of a MigrationTask, one row per entry per
// run. Completed records with both ids form the correspondence ledger that
// seeds the matcher on reruns.
type TaskRecord struct {
	RecordID     string
	Sequence     int64
	RunID        string
	SourceID     string
	TargetID     string
	Name         string
	Kind         Kind
	Action       Action
	Status       Status
	Attempts     int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Key returns the record's unique identifier.
func (t *TaskRecord) Key() string {
	return t.RecordID
}

// Validate checks the record's required fields.
func (t *TaskRecord) Validate() error {
	if t.RecordID == "" {
		return fmt.Errorf("task record id is required")
	}
	if t.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if t.SourceID == "" {
		return fmt.Errorf("source id is required")
	}
	switch t.Action {
	case ActionCopy, ActionRelink, ActionSkip, ActionReview, ActionDelete:
	default:
		return fmt.Errorf("invalid task action '%s'", t.Action)
	}
	switch t.Status {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid task status '%s'", t.Status)
	}
}

// Correspondence pairs a source entry with its confirmed target counterpart.
type Correspondence struct {
	SourceID string
	TargetID string
}
