package tasks

import (
	"fmt"

	"github.com/desertthunder/drivemig/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SnapshotSource Phase = iota
	SnapshotTarget
	Match
	BuildPlan
	Execute
	Delete
	Complete
)

func (p Phase) String() string {
	switch p {
	case SnapshotSource:
		return "snapshot_source"
	case SnapshotTarget:
		return "snapshot_target"
	case Match:
		return "match"
	case BuildPlan:
		return "build_plan"
	case Execute:
		return "execute"
	case Delete:
		return "delete"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func snapshotSourceUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   SnapshotSource,
		Step:    1,
		Total:   1,
		Message: "Snapshotting source hierarchy...",
	}
}

func snapshotTargetUpdate(sourceEntries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SnapshotTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Source has %d entries, snapshotting target...", sourceEntries),
	}
}

func matchUpdate(pairs int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Match,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Matched %d existing correspondences", pairs),
	}
}

func planBuiltUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlan,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Plan ready: %d tasks", total),
	}
}

func taskDoneUpdate(step, total int, task models.MigrationTask) ProgressUpdate {
	phase := Execute
	if task.Action == models.ActionDelete {
		phase = Delete
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s %s '%s'", step, total, task.Action, task.Kind, task.Name),
	}
}

func taskFailedUpdate(step, total int, task models.MigrationTask, err error) ProgressUpdate {
	phase := Execute
	if task.Action == models.ActionDelete {
		phase = Delete
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s %s '%s': %v", step, total, task.Action, task.Kind, task.Name, err),
	}
}

func runCompleteUpdate(run *models.Run) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    run.TasksTotal,
		Total:   run.TasksTotal,
		Message: fmt.Sprintf("Run %s %s: %d done, %d failed", run.RunID, run.Status, run.TasksDone, run.TasksFailed),
		Data:    run,
	}
}
