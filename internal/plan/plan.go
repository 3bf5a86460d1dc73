// package plan turns classification decisions into an ordered task list.
//
// Copy and relink tasks come out parent-before-child; delete tasks, when
// enabled, come out bottom-up and only for entries whose entire subtree
// migrated. Ordering is what lets the executor release work in depth waves.
package plan

import (
	"fmt"

	"github.com/desertthunder/drivemig/internal/classify"
	"github.com/desertthunder/drivemig/internal/match"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
	"github.com/desertthunder/drivemig/internal/snapshot"
)

// Plan is an ordered list of migration tasks plus per-action counts.
type Plan struct {
	Tasks  []models.MigrationTask
	Counts map[models.Action]int
}

// Options controls optional plan content.
type Options struct {
	// DeleteOriginals adds bottom-up delete tasks for fully migrated
	// subtrees. Requires both the config switch and the apply flag.
	DeleteOriginals bool
}

// Build validates and orders the decisions into an executable plan. Every
// copy decision must have a resolvable target parent: either already paired
// or itself planned as a copy. A gap is a planner bug surfacing as
// [shared.ErrUnresolvedParent] before any remote mutation.
func Build(tree *snapshot.Tree, decisions []classify.Decision, m *match.Matcher, opts Options) (*Plan, error) {
	p := &Plan{Counts: make(map[models.Action]int)}

	planned := map[string]models.Action{}
	for _, d := range decisions {
		planned[d.Entry.ID] = d.Action
	}

	rootID := tree.Snapshot().RootID()
	for _, d := range decisions {
		if d.Action == models.ActionCopy {
			if err := checkParent(d.Entry, rootID, planned, m); err != nil {
				return nil, err
			}
		}

		p.add(models.MigrationTask{
			SourceID: d.Entry.ID,
			TargetID: d.TargetID,
			Name:     d.Entry.Name,
			Kind:     d.Entry.Kind,
			Action:   d.Action,
			Depth:    d.Depth,
			Reason:   d.Reason,
		})
	}

	if opts.DeleteOriginals {
		p.addDeletes(tree, decisions, planned)
	}

	return p, nil
}

func checkParent(entry *models.Entry, rootID string, planned map[string]models.Action, m *match.Matcher) error {
	if entry.ParentID == rootID {
		return nil
	}
	if _, ok := m.TargetOf(entry.ParentID); ok {
		return nil
	}
	if planned[entry.ParentID] == models.ActionCopy {
		return nil
	}
	return fmt.Errorf("%w: entry '%s' has parent '%s' with no planned target",
		shared.ErrUnresolvedParent, entry.ID, entry.ParentID)
}

func (p *Plan) add(task models.MigrationTask) {
	p.Tasks = append(p.Tasks, task)
	p.Counts[task.Action]++
}

// addDeletes appends delete tasks in depth-descending order. An entry is
// deletable only when it migrated and every descendant is deletable, so a
// skipped or flagged child keeps its whole ancestor chain in place.
func (p *Plan) addDeletes(tree *snapshot.Tree, decisions []classify.Decision, planned map[string]models.Action) {
	deletable := map[string]bool{}

	var resolve func(entry *models.Entry) bool
	resolve = func(entry *models.Entry) bool {
		action := planned[entry.ID]
		if action != models.ActionCopy && action != models.ActionRelink {
			return false
		}
		ok := true
		for _, child := range tree.ChildrenOf(entry.ID) {
			if !resolve(child) {
				ok = false
			}
		}
		deletable[entry.ID] = ok
		return ok
	}
	for _, entry := range tree.ChildrenOf(tree.Snapshot().RootID()) {
		resolve(entry)
	}

	for depth := tree.MaxDepth(); depth >= 0; depth-- {
		for _, d := range decisions {
			if d.Depth != depth || !deletable[d.Entry.ID] {
				continue
			}
			p.add(models.MigrationTask{
				SourceID: d.Entry.ID,
				Name:     d.Entry.Name,
				Kind:     d.Entry.Kind,
				Action:   models.ActionDelete,
				Depth:    d.Depth,
				Reason:   "original superseded by migrated copy",
			})
		}
	}
}
