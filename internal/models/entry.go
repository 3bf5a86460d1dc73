package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/drivemig/internal/shared"
)

// Principal identifies an account or person capable of holding a role on an entry.
type Principal string

// Role is an ordered capability level granted to a principal on an entry.
type Role string

const (
	RoleReader    Role = "reader"
	RoleCommenter Role = "commenter"
	RoleWriter    Role = "writer"
	RoleOwner     Role = "owner"
)

// Rank returns the ordering position of the role. Unknown roles rank below reader.
func (r Role) Rank() int {
	switch r {
	case RoleReader:
		return 1
	case RoleCommenter:
		return 2
	case RoleWriter:
		return 3
	case RoleOwner:
		return 4
	default:
		return 0
	}
}

// Covers reports whether the role grants at least the capability of other.
func (r Role) Covers(other Role) bool {
	return r.Rank() >= other.Rank()
}

// Kind distinguishes folders from files.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// Permission grants a principal a role on an entry.
type Permission struct {
	Principal Principal
	Role      Role
}

func (p Permission) String() string {
	return fmt.Sprintf("%s (%s)", p.Principal, p.Role)
}

// Entry is a file or folder node in a remote hierarchy.
//
// Names are not unique within a parent: siblings may share a name, so all
// classification and matching is keyed by ID.
type Entry struct {
	ID          string
	Name        string
	ParentID    string
	Kind        Kind
	CreatedAt   time.Time
	Permissions []Permission
	// Notes carries free-form annotations written by prior runs (copy
	// back-references). Never consulted for ownership decisions.
	Notes string
}

// IsFolder reports whether the entry is a folder.
func (e *Entry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Owner returns the principal holding the owner role, if any.
func (e *Entry) Owner() (Principal, bool) {
	for _, p := range e.Permissions {
		if p.Role == RoleOwner {
			return p.Principal, true
		}
	}
	return "", false
}

// RoleOf returns the role the given principal holds on this entry.
func (e *Entry) RoleOf(principal Principal) (Role, bool) {
	for _, p := range e.Permissions {
		if p.Principal == principal {
			return p.Role, true
		}
	}
	return "", false
}

// OwnedBy reports whether the given principal holds the owner role.
func (e *Entry) OwnedBy(principal Principal) bool {
	owner, ok := e.Owner()
	return ok && owner == principal
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s '%s' (id %s)", e.Kind, e.Name, e.ID)
}

// Snapshot is an immutable, point-in-time collection of entries for one
// account's visible hierarchy. Root entries reference RootID, an external
// folder the snapshot does not manage.
type Snapshot struct {
	accountID Principal
	rootID    string
	entries   map[string]*Entry
	order     []string
}

// NewSnapshot validates a flat entry set and produces a Snapshot.
//
// Fails with [shared.ErrMalformedSnapshot] when an entry references a parent
// absent from the record set (and not the declared external root), when two
// entries share an id, or when an entry carries more than one owner.
func NewSnapshot(accountID Principal, rootID string, entries []Entry) (*Snapshot, error) {
	if rootID == "" {
		return nil, fmt.Errorf("%w: missing root id", shared.ErrMalformedSnapshot)
	}

	byID := make(map[string]*Entry, len(entries))
	order := make([]string, 0, len(entries))

	for i := range entries {
		entry := entries[i]
		if entry.ID == "" {
			return nil, fmt.Errorf("%w: entry without id", shared.ErrMalformedSnapshot)
		}
		if _, exists := byID[entry.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate entry id '%s'", shared.ErrMalformedSnapshot, entry.ID)
		}

		owners := 0
		for _, p := range entry.Permissions {
			if p.Role == RoleOwner {
				owners++
			}
		}
		if owners > 1 {
			return nil, fmt.Errorf("%w: entry '%s' has %d owners", shared.ErrMalformedSnapshot, entry.ID, owners)
		}

		byID[entry.ID] = &entry
		order = append(order, entry.ID)
	}

	for _, id := range order {
		entry := byID[id]
		if entry.ParentID == rootID {
			continue
		}
		if _, ok := byID[entry.ParentID]; !ok {
			return nil, fmt.Errorf("%w: entry '%s' references unknown parent '%s'",
				shared.ErrMalformedSnapshot, entry.ID, entry.ParentID)
		}
	}

	return &Snapshot{accountID: accountID, rootID: rootID, entries: byID, order: order}, nil
}

// AccountID returns the account the snapshot was taken from.
func (s *Snapshot) AccountID() Principal {
	return s.accountID
}

// RootID returns the id of the external root folder.
func (s *Snapshot) RootID() string {
	return s.rootID
}

// Entry returns the entry with the given id.
func (s *Snapshot) Entry(id string) (*Entry, bool) {
	entry, ok := s.entries[id]
	return entry, ok
}

// Entries returns all entries in a stable order: creation time, then name, then id.
func (s *Snapshot) Entries() []*Entry {
	result := make([]*Entry, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.entries[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return result
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}
