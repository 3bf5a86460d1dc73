package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
)

var ownerAlice = []models.Permission{{Principal: "alice@example.com", Role: models.RoleOwner}}

func buildSnapshot(t *testing.T, entries []models.Entry) *models.Snapshot {
	t.Helper()
	snap, err := models.NewSnapshot("alice@example.com", "root", entries)
	if err != nil {
		t.Fatalf("failed to build snapshot: %v", err)
	}
	return snap
}

func testEntries() []models.Entry {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []models.Entry{
		{ID: "d1", Name: "docs", ParentID: "root", Kind: models.KindFolder, CreatedAt: base, Permissions: ownerAlice},
		{ID: "d2", Name: "archive", ParentID: "root", Kind: models.KindFolder, CreatedAt: base.Add(time.Hour), Permissions: ownerAlice},
		{ID: "f1", Name: "a.txt", ParentID: "d1", Kind: models.KindFile, CreatedAt: base, Permissions: ownerAlice},
		{ID: "d3", Name: "deep", ParentID: "d1", Kind: models.KindFolder, CreatedAt: base.Add(time.Minute), Permissions: ownerAlice},
		{ID: "f2", Name: "b.txt", ParentID: "d3", Kind: models.KindFile, CreatedAt: base, Permissions: ownerAlice},
	}
}

func TestNewTree(t *testing.T) {
	t.Run("indexes a valid hierarchy", func(t *testing.T) {
		tree, err := NewTree(buildSnapshot(t, testEntries()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := tree.Depth("d1"); got != 0 {
			t.Errorf("expected depth 0 for d1, got %d", got)
		}
		if got := tree.Depth("f1"); got != 1 {
			t.Errorf("expected depth 1 for f1, got %d", got)
		}
		if got := tree.Depth("f2"); got != 2 {
			t.Errorf("expected depth 2 for f2, got %d", got)
		}
		if got := tree.MaxDepth(); got != 2 {
			t.Errorf("expected max depth 2, got %d", got)
		}
	})

	t.Run("detects cycles", func(t *testing.T) {
		entries := []models.Entry{
			{ID: "a", Name: "a", ParentID: "b", Kind: models.KindFolder, Permissions: ownerAlice},
			{ID: "b", Name: "b", ParentID: "a", Kind: models.KindFolder, Permissions: ownerAlice},
		}

		_, err := NewTree(buildSnapshot(t, entries))
		if !errors.Is(err, shared.ErrCycleDetected) {
			t.Errorf("expected ErrCycleDetected, got %v", err)
		}
	})
}

func TestTreeChildrenOf(t *testing.T) {
	tree, err := NewTree(buildSnapshot(t, testEntries()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	children := tree.ChildrenOf("root")
	if len(children) != 2 {
		t.Fatalf("expected 2 root children, got %d", len(children))
	}
	// d1 was created before d2, so creation order wins over name order.
	if children[0].ID != "d1" || children[1].ID != "d2" {
		t.Errorf("unexpected sibling order: %s, %s", children[0].ID, children[1].ID)
	}

	if got := tree.ChildrenOf("f1"); len(got) != 0 {
		t.Errorf("expected no children for a file, got %d", len(got))
	}
}

func TestTreeAncestors(t *testing.T) {
	tree, err := NewTree(buildSnapshot(t, testEntries()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chain := tree.AncestorsOf("f2")
	if len(chain) != 2 || chain[0].ID != "d1" || chain[1].ID != "d3" {
		t.Fatalf("unexpected ancestor chain for f2: %+v", chain)
	}

	if got := tree.AncestorsOf("d1"); len(got) != 0 {
		t.Errorf("expected empty chain for a root-level entry, got %d", len(got))
	}

	if !tree.IsDescendant("f2", "d1") {
		t.Error("expected f2 to descend from d1")
	}
	if tree.IsDescendant("f2", "d2") {
		t.Error("expected f2 to not descend from d2")
	}
	if tree.IsDescendant("d1", "f2") {
		t.Error("expected d1 to not descend from f2")
	}
}

func TestTreeWalkVisitsParentsFirst(t *testing.T) {
	tree, err := NewTree(buildSnapshot(t, testEntries()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	err = tree.Walk(func(entry *models.Entry, depth int) error {
		if entry.ParentID != "root" && !seen[entry.ParentID] {
			t.Errorf("visited '%s' before its parent '%s'", entry.ID, entry.ParentID)
		}
		if got := tree.Depth(entry.ID); got != depth {
			t.Errorf("walk depth %d disagrees with Depth(%s) = %d", depth, entry.ID, got)
		}
		seen[entry.ID] = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 5 {
		t.Errorf("expected to visit 5 entries, visited %d", len(seen))
	}
}

func TestTreeWalkStopsOnError(t *testing.T) {
	tree, err := NewTree(buildSnapshot(t, testEntries()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	visits := 0
	err = tree.Walk(func(entry *models.Entry, depth int) error {
		visits++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected walk error to propagate, got %v", err)
	}
	if visits != 1 {
		t.Errorf("expected walk to stop after first error, visited %d", visits)
	}
}
