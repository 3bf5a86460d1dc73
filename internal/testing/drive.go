package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/drivemig/internal/drive"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
)

// InMemoryDrive is a test double for drive.Service backed by a map of
// entries. Safe for concurrent use. Failures can be injected per operation
// and entry via FailWith keys of the form "copy:f1", "delete:d2".
type InMemoryDrive struct {
	mu      sync.Mutex
	account models.Principal
	entries map[string]models.Entry
	nextID  int

	// FailWith maps "<op>:<id>" to the error that call should return.
	FailWith map[string]error
	// TransientlyFail maps "<op>:<id>" to how many times the call should
	// return ErrRemoteTransient before succeeding.
	TransientlyFail map[string]int

	// Mutation counters, for asserting zero-mutation properties.
	Copies  int
	Folders int
	Deletes int
	Grants  int
}

// NewInMemoryDrive creates an empty fake drive acting as the given account.
func NewInMemoryDrive(account models.Principal) *InMemoryDrive {
	return &InMemoryDrive{
		account:         account,
		entries:         map[string]models.Entry{},
		FailWith:        map[string]error{},
		TransientlyFail: map[string]int{},
	}
}

// AddEntry seeds an entry into the fake hierarchy.
func (d *InMemoryDrive) AddEntry(entry models.Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[entry.ID] = entry
}

// Entries returns a copy of the current entry set.
func (d *InMemoryDrive) Entries() []models.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make([]models.Entry, 0, len(d.entries))
	for _, entry := range d.entries {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Mutations returns the total count of remote writes the fake has seen.
func (d *InMemoryDrive) Mutations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Copies + d.Folders + d.Deletes + d.Grants
}

// inject must be called with the lock held.
func (d *InMemoryDrive) inject(op, id string) error {
	key := op + ":" + id
	if remaining := d.TransientlyFail[key]; remaining > 0 {
		d.TransientlyFail[key] = remaining - 1
		return fmt.Errorf("%w: injected for %s", shared.ErrRemoteTransient, key)
	}
	if err := d.FailWith[key]; err != nil {
		return err
	}
	return nil
}

func (d *InMemoryDrive) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (d *InMemoryDrive) AccountID() models.Principal { return d.account }
func (d *InMemoryDrive) Name() string                { return string(d.account) }

func (d *InMemoryDrive) ListChildren(ctx context.Context, parentID, pageToken string) (*drive.EntryPage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.inject("list", parentID); err != nil {
		return nil, err
	}

	page := &drive.EntryPage{}
	for _, entry := range d.entries {
		if entry.ParentID == parentID {
			page.Entries = append(page.Entries, entry)
		}
	}
	sort.Slice(page.Entries, func(i, j int) bool { return page.Entries[i].ID < page.Entries[j].ID })
	return page, nil
}

func (d *InMemoryDrive) ListPermissions(ctx context.Context, id string) ([]models.Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrRemoteNotFound, id)
	}
	return entry.Permissions, nil
}

func (d *InMemoryDrive) Get(ctx context.Context, id string) (*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrRemoteNotFound, id)
	}
	return &entry, nil
}

func (d *InMemoryDrive) CreateCopy(ctx context.Context, sourceID, targetParentID, name, notes string) (*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.inject("copy", sourceID); err != nil {
		return nil, err
	}

	d.Copies++
	d.nextID++
	entry := models.Entry{
		ID:          fmt.Sprintf("copy-%d", d.nextID),
		Name:        name,
		ParentID:    targetParentID,
		Kind:        models.KindFile,
		Notes:       notes,
		Permissions: []models.Permission{{Principal: d.account, Role: models.RoleOwner}},
	}
	d.entries[entry.ID] = entry
	return &entry, nil
}

func (d *InMemoryDrive) CreateFolder(ctx context.Context, name, parentID, notes string) (*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.inject("folder", name); err != nil {
		return nil, err
	}

	d.Folders++
	d.nextID++
	entry := models.Entry{
		ID:          fmt.Sprintf("folder-%d", d.nextID),
		Name:        name,
		ParentID:    parentID,
		Kind:        models.KindFolder,
		Notes:       notes,
		Permissions: []models.Permission{{Principal: d.account, Role: models.RoleOwner}},
	}
	d.entries[entry.ID] = entry
	return &entry, nil
}

func (d *InMemoryDrive) SetPermission(ctx context.Context, id string, principal models.Principal, role models.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrRemoteNotFound, id)
	}

	d.Grants++
	entry.Permissions = append(entry.Permissions, models.Permission{Principal: principal, Role: role})
	d.entries[id] = entry
	return nil
}

func (d *InMemoryDrive) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.inject("delete", id); err != nil {
		return err
	}

	if _, ok := d.entries[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrRemoteNotFound, id)
	}
	for _, entry := range d.entries {
		if entry.ParentID == id {
			return fmt.Errorf("%w: folder '%s' is not empty", shared.ErrRemotePermissionDenied, id)
		}
	}

	d.Deletes++
	delete(d.entries, id)
	return nil
}
