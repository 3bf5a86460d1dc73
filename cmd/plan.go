package main

import (
	"context"

	"github.com/desertthunder/drivemig/internal/formatter"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/tasks"
	"github.com/desertthunder/drivemig/internal/ui"
	"github.com/urfave/cli/v3"
)

// Plan runs the read-only half of the pipeline and prints the resulting plan.
func (r *Runner) Plan(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.openStore(); err != nil {
		return err
	}
	if err := r.ensureServices(ctx); err != nil {
		return err
	}

	result, err := r.engine().BuildPlan(ctx, nil, tasks.PlanOpts{
		ConfirmDelete: cmd.Bool("with-deletes"),
	})
	if err != nil {
		return err
	}

	if reportPath := cmd.String("report"); reportPath != "" {
		written, err := formatter.WritePlanReport(result.Plan, reportPath)
		if err != nil {
			return err
		}
		r.writePlain("✓ Plan report written to %s\n", written)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Plan.Tasks, true)
	}

	r.printPlan(result)
	return nil
}

func (r *Runner) printPlan(result *tasks.PlanResult) {
	plan := result.Plan

	r.writePlainHeader("Migration Plan")
	r.writePlain("Source: %s (root %s)\n", r.config.Accounts.Source.AccountID, r.config.Accounts.Source.RootID)
	r.writePlain("Target: %s (root %s)\n\n", r.config.Accounts.Target.AccountID, r.config.Accounts.Target.RootID)

	for _, action := range []models.Action{
		models.ActionCopy, models.ActionRelink, models.ActionSkip,
		models.ActionReview, models.ActionDelete,
	} {
		if count := plan.Counts[action]; count > 0 {
			r.writePlain("  %s: %d\n", ui.RenderAction(action), count)
		}
	}

	r.writePlain("\n")
	for _, task := range plan.Tasks {
		r.writePlain("%s %s '%s'", ui.RenderAction(task.Action), task.Kind, task.Name)
		if task.TargetID != "" {
			r.writePlain(" → %s", task.TargetID)
		}
		if task.Reason != "" {
			r.writePlain("  (%s)", task.Reason)
		}
		r.writePlain("\n")
	}

	r.writePlain("\n%d tasks planned. Run 'drivemig apply' to execute.\n", len(plan.Tasks))
}
