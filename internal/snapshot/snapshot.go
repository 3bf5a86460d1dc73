package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/drivemig/internal/drive"
	"github.com/desertthunder/drivemig/internal/models"
)

// Build walks the hierarchy under rootID and produces a validated snapshot.
// Entries missing embedded permissions get a per-entry permission listing.
// Build never mutates remote state.
func Build(ctx context.Context, svc drive.Service, rootID string, logger *log.Logger) (*models.Snapshot, error) {
	var entries []models.Entry

	it := drive.ListEntries(svc, rootID)
	for {
		entry, err := it.Next(ctx)
		if errors.Is(err, drive.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot of '%s' failed: %w", rootID, err)
		}

		if len(entry.Permissions) == 0 {
			permissions, err := svc.ListPermissions(ctx, entry.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list permissions for '%s': %w", entry.ID, err)
			}
			entry.Permissions = permissions
		}

		entries = append(entries, *entry)
	}

	logger.Debug("snapshot complete", "account", svc.AccountID(), "root", rootID, "entries", len(entries))

	return models.NewSnapshot(svc.AccountID(), rootID, entries)
}
