// package classify decides, per source entry, which migration action applies.
//
// Decisions are keyed by entry id only. Not owning an entry means skipping
// it; an existing correspondence means relinking; everything else the acting
// principal owns is copied, subject to the configured kind filters.
package classify

import (
	"github.com/desertthunder/drivemig/internal/match"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/snapshot"
)

// Decision records the chosen action for one source entry.
type Decision struct {
	Entry    *models.Entry
	Action   models.Action
	TargetID string
	Depth    int
	Reason   string
}

// Options filters which entry kinds may be copied.
type Options struct {
	CopyFiles   bool
	CopyFolders bool
}

// Classify walks the source tree parent-before-child and produces one
// decision per entry. An entry whose parent will not exist on the target
// (parent skipped or under review) is skipped too, so the planner never
// sees a child without a resolvable target parent.
func Classify(tree *snapshot.Tree, acting models.Principal, m *match.Matcher, opts Options) []Decision {
	decisions := make([]Decision, 0, tree.Snapshot().Len())
	migrated := map[string]bool{tree.Snapshot().RootID(): true}

	tree.Walk(func(entry *models.Entry, depth int) error {
		decision := decide(entry, acting, m, opts, migrated)
		decision.Depth = depth
		if decision.Action == models.ActionCopy || decision.Action == models.ActionRelink {
			migrated[entry.ID] = true
		}
		decisions = append(decisions, decision)
		return nil
	})

	return decisions
}

func decide(entry *models.Entry, acting models.Principal, m *match.Matcher, opts Options, migrated map[string]bool) Decision {
	if reason, flagged := m.NeedsReview(entry.ID); flagged {
		return Decision{Entry: entry, Action: models.ActionReview, Reason: reason}
	}

	if targetID, ok := m.TargetOf(entry.ID); ok {
		return Decision{Entry: entry, Action: models.ActionRelink, TargetID: targetID,
			Reason: "target counterpart already exists"}
	}

	if !entry.OwnedBy(acting) {
		return Decision{Entry: entry, Action: models.ActionSkip,
			Reason: "not owned by " + string(acting)}
	}

	if !migrated[entry.ParentID] {
		return Decision{Entry: entry, Action: models.ActionSkip,
			Reason: "parent is not migrated"}
	}

	if entry.IsFolder() && !opts.CopyFolders {
		return Decision{Entry: entry, Action: models.ActionSkip,
			Reason: "folder copying is disabled"}
	}
	if !entry.IsFolder() && !opts.CopyFiles {
		return Decision{Entry: entry, Action: models.ActionSkip,
			Reason: "file copying is disabled"}
	}

	return Decision{Entry: entry, Action: models.ActionCopy,
		Reason: "owned and no counterpart on target"}
}
