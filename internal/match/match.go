// package match resolves which target entries correspond to which source
// entries across runs.
//
// Resolution is authoritative-first: ledger records from prior runs, then
// back-reference notes stamped on copies, then the in-memory registry of
// copies made during the current run. Name similarity alone never pairs two
// entries.
package match

import (
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/snapshot"
)

// backRefPrefix marks a note written onto a copy so later runs can find it.
const backRefPrefix = "drivemig:source="

// BackRef formats the note stamped onto a copy of the given source entry.
func BackRef(sourceID string) string {
	return backRefPrefix + sourceID
}

// ParseBackRef extracts the source id from an entry's notes, if present.
func ParseBackRef(notes string) (string, bool) {
	for _, field := range strings.Fields(notes) {
		if strings.HasPrefix(field, backRefPrefix) {
			id := strings.TrimPrefix(field, backRefPrefix)
			if id != "" {
				return id, true
			}
		}
	}
	return "", false
}

// Matcher holds an injective source-to-target correspondence map. Register
// is called from executor workers, so the map is guarded for concurrent use.
type Matcher struct {
	source *snapshot.Tree
	target *snapshot.Tree

	mu      sync.RWMutex
	pairs   map[string]string
	reverse map[string]string
	review  map[string]string
}

// NewMatcher resolves correspondences for every source entry against the
// target snapshot and the persisted ledger. The source and target roots are
// paired by configuration, never inferred.
func NewMatcher(source, target *snapshot.Tree, ledger []models.Correspondence) (*Matcher, error) {
	m := &Matcher{
		source:  source,
		target:  target,
		pairs:   map[string]string{source.Snapshot().RootID(): target.Snapshot().RootID()},
		reverse: map[string]string{target.Snapshot().RootID(): source.Snapshot().RootID()},
		review:  map[string]string{},
	}

	recorded := make(map[string]string, len(ledger))
	for _, pair := range ledger {
		recorded[pair.SourceID] = pair.TargetID
	}

	err := source.Walk(func(entry *models.Entry, depth int) error {
		m.resolve(entry, recorded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// resolve pairs one source entry. Parents resolve before children, so the
// mapped target parent is available when scanning back-references.
func (m *Matcher) resolve(entry *models.Entry, recorded map[string]string) {
	if targetID, ok := recorded[entry.ID]; ok {
		m.adoptLedgerPair(entry, targetID)
		return
	}

	m.adoptBackRef(entry)
}

// adoptLedgerPair validates a persisted pair against the target snapshot.
// A vanished target falls through to the back-reference scan; a kind
// mismatch or injectivity violation flags the entry for review.
func (m *Matcher) adoptLedgerPair(entry *models.Entry, targetID string) {
	targetEntry, ok := m.target.Entry(targetID)
	if !ok {
		m.adoptBackRef(entry)
		return
	}

	if targetEntry.Kind != entry.Kind {
		m.review[entry.ID] = fmt.Sprintf("recorded counterpart '%s' is a %s, expected a %s",
			targetID, targetEntry.Kind, entry.Kind)
		return
	}

	m.pair(entry.ID, targetID)
}

// adoptBackRef scans the children of the mapped target parent for a note
// referencing this source entry.
func (m *Matcher) adoptBackRef(entry *models.Entry) {
	targetParentID, ok := m.pairs[entry.ParentID]
	if !ok {
		return
	}

	var candidates []*models.Entry
	for _, child := range m.target.ChildrenOf(targetParentID) {
		if sourceID, ok := ParseBackRef(child.Notes); ok && sourceID == entry.ID {
			candidates = append(candidates, child)
		}
	}

	switch len(candidates) {
	case 0:
		return
	case 1:
		candidate := candidates[0]
		if candidate.Kind != entry.Kind {
			m.review[entry.ID] = fmt.Sprintf("back-referenced counterpart '%s' is a %s, expected a %s",
				candidate.ID, candidate.Kind, entry.Kind)
			return
		}
		m.pair(entry.ID, candidate.ID)
	default:
		m.review[entry.ID] = fmt.Sprintf("%d target entries claim this source entry", len(candidates))
	}
}

// pair records a correspondence, flagging for review instead when the target
// is already claimed. The map stays injective.
func (m *Matcher) pair(sourceID, targetID string) {
	if claimedBy, ok := m.reverse[targetID]; ok && claimedBy != sourceID {
		m.review[sourceID] = fmt.Sprintf("target '%s' already corresponds to '%s'", targetID, claimedBy)
		return
	}
	m.pairs[sourceID] = targetID
	m.reverse[targetID] = sourceID
}

// TargetOf returns the target counterpart of a source entry (or of the
// source root, which maps to the configured target root).
func (m *Matcher) TargetOf(sourceID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	targetID, ok := m.pairs[sourceID]
	return targetID, ok
}

// NeedsReview returns the reason a source entry cannot be paired
// automatically, if any.
func (m *Matcher) NeedsReview(sourceID string) (string, bool) {
	reason, ok := m.review[sourceID]
	return reason, ok
}

// Register records a pair created during the current run, typically a fresh
// copy. Fails when the registration would break injectivity.
func (m *Matcher) Register(sourceID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.pairs[sourceID]; ok && existing != targetID {
		return fmt.Errorf("source '%s' already paired with '%s'", sourceID, existing)
	}
	if claimedBy, ok := m.reverse[targetID]; ok && claimedBy != sourceID {
		return fmt.Errorf("target '%s' already paired with '%s'", targetID, claimedBy)
	}
	m.pairs[sourceID] = targetID
	m.reverse[targetID] = sourceID
	return nil
}

// Pairs returns every source-to-target correspondence, excluding the root
// mapping.
func (m *Matcher) Pairs() []models.Correspondence {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rootID := m.source.Snapshot().RootID()
	result := make([]models.Correspondence, 0, len(m.pairs))
	for sourceID, targetID := range m.pairs {
		if sourceID == rootID {
			continue
		}
		result = append(result, models.Correspondence{SourceID: sourceID, TargetID: targetID})
	}
	return result
}
