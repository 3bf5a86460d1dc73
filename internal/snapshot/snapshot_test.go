package snapshot

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/desertthunder/drivemig/internal/drive"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/shared"
)

type fakeService struct {
	entries         map[string][]models.Entry
	permissions     map[string][]models.Permission
	permissionCalls int
	listErr         error
}

func (f *fakeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (f *fakeService) AccountID() models.Principal { return "alice@example.com" }
func (f *fakeService) Name() string                { return "source" }

func (f *fakeService) ListChildren(ctx context.Context, parentID, pageToken string) (*drive.EntryPage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &drive.EntryPage{Entries: f.entries[parentID]}, nil
}

func (f *fakeService) ListPermissions(ctx context.Context, id string) ([]models.Permission, error) {
	f.permissionCalls++
	return f.permissions[id], nil
}

func (f *fakeService) Get(ctx context.Context, id string) (*models.Entry, error) {
	return nil, shared.ErrRemoteNotFound
}

func (f *fakeService) CreateCopy(ctx context.Context, sourceID, targetParentID, name, notes string) (*models.Entry, error) {
	return nil, shared.ErrNotImplemented
}

func (f *fakeService) CreateFolder(ctx context.Context, name, parentID, notes string) (*models.Entry, error) {
	return nil, shared.ErrNotImplemented
}

func (f *fakeService) SetPermission(ctx context.Context, id string, principal models.Principal, role models.Role) error {
	return shared.ErrNotImplemented
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	return shared.ErrNotImplemented
}

func TestBuild(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("collects entries and inline permissions", func(t *testing.T) {
		svc := &fakeService{
			entries: map[string][]models.Entry{
				"root": {
					{ID: "d1", Name: "docs", ParentID: "root", Kind: models.KindFolder, Permissions: ownerAlice},
				},
				"d1": {
					{ID: "f1", Name: "a.txt", ParentID: "d1", Kind: models.KindFile, Permissions: ownerAlice},
				},
			},
		}

		snap, err := Build(context.Background(), svc, "root", logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", snap.Len())
		}
		if svc.permissionCalls != 0 {
			t.Errorf("expected no permission listings when entries embed them, got %d", svc.permissionCalls)
		}
		if snap.AccountID() != "alice@example.com" {
			t.Errorf("unexpected account id %s", snap.AccountID())
		}
	})

	t.Run("fetches permissions when missing", func(t *testing.T) {
		svc := &fakeService{
			entries: map[string][]models.Entry{
				"root": {
					{ID: "f1", Name: "a.txt", ParentID: "root", Kind: models.KindFile},
				},
			},
			permissions: map[string][]models.Permission{
				"f1": ownerAlice,
			},
		}

		snap, err := Build(context.Background(), svc, "root", logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.permissionCalls != 1 {
			t.Errorf("expected one permission listing, got %d", svc.permissionCalls)
		}

		entry, ok := snap.Entry("f1")
		if !ok || !entry.OwnedBy("alice@example.com") {
			t.Error("expected fetched permissions on the entry")
		}
	})

	t.Run("propagates listing failures", func(t *testing.T) {
		svc := &fakeService{listErr: shared.ErrRemoteTransient}

		_, err := Build(context.Background(), svc, "root", logger)
		if !errors.Is(err, shared.ErrRemoteTransient) {
			t.Errorf("expected ErrRemoteTransient, got %v", err)
		}
	})
}
