package drive

import (
	"context"
	"fmt"

	"github.com/desertthunder/drivemig/internal/models"
)

// Done is returned by [EntryIterator.Next] when the listing is exhausted.
var Done = fmt.Errorf("no more entries")

// EntryPage is one page of a folder listing.
type EntryPage struct {
	Entries       []models.Entry
	NextPageToken string
}

// Service defines the capability interface for a remote drive account.
// Implementations must be safe for concurrent use by multiple workers.
type Service interface {
	// Authenticate performs OAuth authentication with the remote API.
	// Expects either an "access_token" or "auth_code" in credentials.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// AccountID returns the principal this service acts as.
	AccountID() models.Principal

	// ListChildren retrieves one page of the direct children of a folder.
	// Pass an empty pageToken for the first page.
	ListChildren(ctx context.Context, parentID, pageToken string) (*EntryPage, error)

	// ListPermissions retrieves the permission set of an entry.
	ListPermissions(ctx context.Context, id string) ([]models.Permission, error)

	// Get retrieves a single entry by id.
	Get(ctx context.Context, id string) (*models.Entry, error)

	// CreateCopy makes a server-side copy of a file under the given parent.
	// The notes string is stored on the new entry.
	CreateCopy(ctx context.Context, sourceID, targetParentID, name, notes string) (*models.Entry, error)

	// CreateFolder creates a new folder under the given parent. Folders
	// cannot be copied server-side, so folder migration recreates them.
	CreateFolder(ctx context.Context, name, parentID, notes string) (*models.Entry, error)

	// SetPermission grants the principal the given role on an entry.
	SetPermission(ctx context.Context, id string, principal models.Principal, role models.Role) error

	// Delete removes an entry. Deleting a folder fails while it has children.
	Delete(ctx context.Context, id string) error

	// Name returns a short label for the remote account, used in logs.
	Name() string
}

// EntryIterator walks a hierarchy breadth-first, one entry at a time,
// following page tokens within each folder. A failed page fetch leaves the
// iterator's position unchanged, so the caller may retry Next after a
// transient error.
type EntryIterator struct {
	svc     Service
	queue   []string
	current string
	token   string
	buf     []models.Entry
}

// ListEntries returns an iterator over every entry reachable from rootID.
// The root folder itself is not yielded.
func ListEntries(svc Service, rootID string) *EntryIterator {
	return &EntryIterator{svc: svc, queue: []string{rootID}}
}

// Next returns the next entry, or [Done] once the hierarchy is exhausted.
func (it *EntryIterator) Next(ctx context.Context) (*models.Entry, error) {
	for len(it.buf) == 0 {
		if it.current == "" {
			if len(it.queue) == 0 {
				return nil, Done
			}
			it.current = it.queue[0]
			it.queue = it.queue[1:]
			it.token = ""
		}

		page, err := it.svc.ListChildren(ctx, it.current, it.token)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of '%s': %w", it.current, err)
		}

		it.buf = append(it.buf, page.Entries...)
		for _, entry := range page.Entries {
			if entry.IsFolder() {
				it.queue = append(it.queue, entry.ID)
			}
		}

		it.token = page.NextPageToken
		if it.token == "" {
			it.current = ""
		}
	}

	entry := it.buf[0]
	it.buf = it.buf[1:]
	return &entry, nil
}
