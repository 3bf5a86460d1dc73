package ui

import (
	"github.com/desertthunder/drivemig/internal/tasks"
)

// planBuiltMsg carries the result of the read-only planning phase.
type planBuiltMsg struct {
	result *tasks.PlanResult
	err    error
}

// progressUpdateMsg wraps an engine progress event for the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// applyCompleteMsg carries the final run result once the executor drains.
type applyCompleteMsg struct {
	result *tasks.ApplyResult
	err    error
}
