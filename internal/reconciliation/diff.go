package reconciliation

import (
	"notecal/pkg/models"
)

// Reconcile diffs a remote listing against the local index. It is a pure
// function: nothing is read or written, and re-running it against a local
// index that already reflects the returned Diff yields an empty Diff.
//
// Only note-type remote entries are considered; folders never become records.
// A remote id listed twice is visited once, the first entry wins.
func Reconcile(remote []models.RemoteDocument, local []models.DocumentRecord, opts Options) Diff {
	byRemoteID := make(map[string]models.DocumentRecord, len(local))
	for _, rec := range local {
		byRemoteID[rec.RemoteID] = rec
	}

	var diff Diff
	seen := make(map[string]struct{}, len(remote))

	for _, doc := range remote {
		if !doc.IsNote() {
			continue
		}
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}

		rec, exists := byRemoteID[doc.ID]
		if !exists {
			diff.Added = append(diff.Added, models.DocumentRecord{
				UserID:       opts.UserID,
				RemoteID:     doc.ID,
				Version:      doc.Version,
				Name:         doc.Name,
				Type:         doc.Type,
				FolderPath:   opts.FolderPath,
				LastModified: doc.LastModified,
				IsProcessed:  false,
				UpdatedAt:    opts.Now,
			})
			continue
		}

		if rec.Version == doc.Version {
			continue
		}

		rec.Version = doc.Version
		rec.Name = doc.Name
		rec.LastModified = doc.LastModified
		rec.IsProcessed = false
		rec.UpdatedAt = opts.Now
		diff.Updated = append(diff.Updated, rec)
	}

	for _, rec := range local {
		if _, present := seen[rec.RemoteID]; present {
			continue
		}
		if rec.IsAgenda {
			continue
		}
		diff.Removed = append(diff.Removed, rec)
	}

	return diff
}
