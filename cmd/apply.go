package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/drivemig/internal/formatter"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/tasks"
	"github.com/desertthunder/drivemig/internal/ui"
	"github.com/urfave/cli/v3"
)

// Apply runs the full pipeline: build the plan and execute it.
//
// Returns a non-nil error when any task ends failed, so the process exits
// non-zero without the caller inspecting the run record.
func (r *Runner) Apply(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.openStore(); err != nil {
		return err
	}
	if err := r.ensureServices(ctx); err != nil {
		return err
	}

	opts := tasks.PlanOpts{ConfirmDelete: cmd.Bool("confirm-delete")}
	engine := r.engine()

	if cmd.Bool("ui") {
		program := tea.NewProgram(ui.NewModel(ctx, engine, opts), tea.WithContext(ctx))
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("ui error: %w", err)
		}
		return uiExitError(final)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.SnapshotSource, tasks.SnapshotTarget, tasks.Match, tasks.BuildPlan:
				r.writePlain("→ %s\n", update.Message)
			case tasks.Execute, tasks.Delete:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, applyErr := r.runPipeline(ctx, engine, progressCh, opts)
	close(progressCh)
	<-done

	if applyErr != nil {
		return applyErr
	}
	if result == nil {
		return nil
	}

	run := result.Run
	r.writePlain("\n")
	r.writePlainHeader("Migration Run " + run.RunID)
	r.writePlain("Status: %s\n", ui.RenderStatus(run.Status))
	r.writePlain("Tasks: %d done, %d failed of %d\n", run.TasksDone, run.TasksFailed, run.TasksTotal)

	if run.TasksFailed > 0 {
		r.writePlain("\nFailed tasks:\n")
		for _, out := range result.Outcomes {
			if out.Status == models.StatusFailed {
				r.writePlain("  ✗ %s %s '%s': %v\n", out.Action, out.Kind, out.Name, out.Err)
			}
		}
	}

	if reportBase := cmd.String("report"); reportBase != "" {
		report, err := formatter.WriteRunReport(result, reportBase)
		if err != nil {
			return err
		}
		r.writePlain("\n✓ Outcome report: %s\n", report.OutcomesFile)
		r.writePlain("✓ Run summary: %s\n", report.SummaryFile)
	}

	if run.Status == models.StatusFailed {
		return fmt.Errorf("run %s finished with %d failed tasks", run.RunID, run.TasksFailed)
	}

	return nil
}

// uiExitError maps the final TUI model onto the process exit status, so an
// interactive run with failed tasks exits non-zero like a plain one.
func uiExitError(final tea.Model) error {
	outcome, ok := final.(interface {
		Err() error
		Result() *tasks.ApplyResult
	})
	if !ok {
		return nil
	}

	if err := outcome.Err(); err != nil {
		return err
	}

	result := outcome.Result()
	if result == nil || result.Run == nil {
		return nil
	}
	if result.Run.Status == models.StatusFailed {
		return fmt.Errorf("run %s finished with %d failed tasks", result.Run.RunID, result.Run.TasksFailed)
	}
	return nil
}

func (r *Runner) runPipeline(ctx context.Context, engine *tasks.Engine, progressCh chan tasks.ProgressUpdate, opts tasks.PlanOpts) (*tasks.ApplyResult, error) {
	planResult, err := engine.BuildPlan(ctx, progressCh, opts)
	if err != nil {
		return nil, err
	}

	if len(planResult.Plan.Tasks) == 0 {
		r.writePlain("Nothing to do: plan is empty.\n")
		return nil, nil
	}

	return engine.Apply(ctx, progressCh, planResult)
}
