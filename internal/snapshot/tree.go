package snapshot

import (
	"fmt"
	"sort"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
)

// Tree indexes a snapshot's entries by parent link for ordered traversal.
// The external root folder is the traversal origin but is not itself a tree
// node.
type Tree struct {
	snap     *models.Snapshot
	children map[string][]string
	depth    map[string]int
}

// NewTree builds the parent/child index over a snapshot. Fails with
// [shared.ErrCycleDetected] when following parent links revisits an entry.
func NewTree(snap *models.Snapshot) (*Tree, error) {
	tree := &Tree{
		snap:     snap,
		children: make(map[string][]string),
		depth:    make(map[string]int, snap.Len()),
	}

	for _, entry := range snap.Entries() {
		tree.children[entry.ParentID] = append(tree.children[entry.ParentID], entry.ID)
	}

	for id := range tree.children {
		tree.sortSiblings(tree.children[id])
	}

	for _, entry := range snap.Entries() {
		if _, err := tree.resolveDepth(entry.ID, make(map[string]bool)); err != nil {
			return nil, err
		}
	}

	return tree, nil
}

// sortSiblings orders ids by creation time, then name, then id. Sibling
// order is the tie break the planner uses within a depth wave.
func (t *Tree) sortSiblings(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, _ := t.snap.Entry(ids[i])
		b, _ := t.snap.Entry(ids[j])
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func (t *Tree) resolveDepth(id string, visiting map[string]bool) (int, error) {
	if depth, ok := t.depth[id]; ok {
		return depth, nil
	}
	if visiting[id] {
		return 0, fmt.Errorf("%w: at entry '%s'", shared.ErrCycleDetected, id)
	}
	visiting[id] = true

	entry, ok := t.snap.Entry(id)
	if !ok {
		return 0, fmt.Errorf("%w: unknown entry '%s'", shared.ErrMalformedSnapshot, id)
	}

	depth := 0
	if entry.ParentID != t.snap.RootID() {
		parentDepth, err := t.resolveDepth(entry.ParentID, visiting)
		if err != nil {
			return 0, err
		}
		depth = parentDepth + 1
	}

	t.depth[id] = depth
	return depth, nil
}

// Snapshot returns the underlying snapshot.
func (t *Tree) Snapshot() *models.Snapshot {
	return t.snap
}

// Entry returns the entry with the given id.
func (t *Tree) Entry(id string) (*models.Entry, bool) {
	return t.snap.Entry(id)
}

// ChildrenOf returns the ordered direct children of an entry (or of the
// external root).
func (t *Tree) ChildrenOf(id string) []*models.Entry {
	ids := t.children[id]
	result := make([]*models.Entry, 0, len(ids))
	for _, childID := range ids {
		if entry, ok := t.snap.Entry(childID); ok {
			result = append(result, entry)
		}
	}
	return result
}

// Depth returns how many folders separate the entry from the external root.
// Entries directly under the root have depth 0.
func (t *Tree) Depth(id string) int {
	return t.depth[id]
}

// MaxDepth returns the deepest level in the tree, or -1 when empty.
func (t *Tree) MaxDepth() int {
	max := -1
	for _, depth := range t.depth {
		if depth > max {
			max = depth
		}
	}
	return max
}

// AncestorsOf returns the chain of ancestor entries from the root level down
// to the entry's direct parent. Entries directly under the external root get
// an empty chain.
func (t *Tree) AncestorsOf(id string) []*models.Entry {
	var chain []*models.Entry
	entry, ok := t.snap.Entry(id)
	for ok && entry.ParentID != t.snap.RootID() {
		entry, ok = t.snap.Entry(entry.ParentID)
		if ok {
			chain = append(chain, entry)
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IsDescendant reports whether id sits anywhere below ancestorID.
func (t *Tree) IsDescendant(id, ancestorID string) bool {
	for _, ancestor := range t.AncestorsOf(id) {
		if ancestor.ID == ancestorID {
			return true
		}
	}
	return false
}

// Walk visits every entry parent-before-child, siblings in tree order.
// The walk stops on the first error.
func (t *Tree) Walk(fn func(entry *models.Entry, depth int) error) error {
	var visit func(parentID string, depth int) error
	visit = func(parentID string, depth int) error {
		for _, entry := range t.ChildrenOf(parentID) {
			if err := fn(entry, depth); err != nil {
				return err
			}
		}
		for _, entry := range t.ChildrenOf(parentID) {
			if entry.IsFolder() {
				if err := visit(entry.ID, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return visit(t.snap.RootID(), 0)
}
