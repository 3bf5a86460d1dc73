package main

import (
	"context"

	"github.com/desertthunder/drivemig/internal/ui"
	"github.com/urfave/cli/v3"
)

// RunsList prints recorded migration runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.openStore(); err != nil {
		return err
	}

	criteria := map[string]any{}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}

	runs, err := r.store.Runs.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded.\n")
	}

	r.writePlain("Found %d runs:\n\n", len(runs))
	for _, run := range runs {
		r.writePlain("%s  %s\n", run.RunID, ui.RenderStatus(run.Status))
		r.writePlain("   %s → %s\n", run.SourceAccount, run.TargetAccount)
		r.writePlain("   Tasks: %d done, %d failed of %d\n", run.TasksDone, run.TasksFailed, run.TasksTotal)
		if !run.StartedAt.IsZero() {
			r.writePlain("   Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		}
		if run.ErrorMessage != "" {
			r.writePlain("   Error: %s\n", run.ErrorMessage)
		}
		r.writePlain("\n")
	}

	return nil
}

// RunsTasks prints the task records of one run in execution order.
func (r *Runner) RunsTasks(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.openStore(); err != nil {
		return err
	}

	runID := cmd.String("run")
	records, err := r.store.Tasks.List(map[string]any{"run_id": runID})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		return r.writePlain("No task records for run %s.\n", runID)
	}

	r.writePlain("Run %s: %d task records\n\n", runID, len(records))
	for _, record := range records {
		r.writePlain("%s %s %s '%s'", ui.RenderStatus(record.Status), ui.RenderAction(record.Action), record.Kind, record.Name)
		if record.TargetID != "" {
			r.writePlain(" → %s", record.TargetID)
		}
		if record.Attempts > 1 {
			r.writePlain(" (%d attempts)", record.Attempts)
		}
		if record.ErrorMessage != "" {
			r.writePlain("  error: %s", record.ErrorMessage)
		}
		r.writePlain("\n")
	}

	return nil
}
