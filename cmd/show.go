package main

import (
	"context"
	"strings"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Show walks the source hierarchy and prints each entry with ownership and
// correspondence annotations. Read-only.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.openStore(); err != nil {
		return err
	}
	if err := r.ensureServices(ctx); err != nil {
		return err
	}

	result, err := r.engine().BuildPlan(ctx, nil, tasks.PlanOpts{})
	if err != nil {
		return err
	}

	tree := result.SourceTree
	acting := models.Principal(r.config.Accounts.Source.AccountID)

	r.writePlainHeader("Source Hierarchy: " + r.config.Accounts.Source.AccountID)
	r.writePlain("root %s\n", tree.Snapshot().RootID())

	var render func(parentID string)
	render = func(parentID string) {
		for _, entry := range tree.ChildrenOf(parentID) {
			indent := strings.Repeat("  ", tree.Depth(entry.ID)+1)
			marker := "•"
			if entry.IsFolder() {
				marker = "▸"
			}
			r.writePlain("%s%s %s", indent, marker, entry.Name)

			var notes []string
			if !entry.OwnedBy(acting) {
				notes = append(notes, "not owned")
			}
			if targetID, ok := result.Matcher.TargetOf(entry.ID); ok {
				notes = append(notes, "→ "+targetID)
			}
			if reason, flagged := result.Matcher.NeedsReview(entry.ID); flagged {
				notes = append(notes, "needs review: "+reason)
			}
			if len(notes) > 0 {
				r.writePlain("  [%s]", strings.Join(notes, ", "))
			}
			r.writePlain("\n")

			if entry.IsFolder() {
				render(entry.ID)
			}
		}
	}
	render(tree.Snapshot().RootID())

	r.writePlain("\n%d entries\n", tree.Snapshot().Len())
	return nil
}
