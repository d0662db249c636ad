package reconciliation

import (
	"time"

	"notecal/pkg/models"
)

// Diff holds the concrete mutations that bring the local index in line with
// the remote listing. The three sets are disjoint.
type Diff struct {
	Added   []models.DocumentRecord // New records (ID unset), IsProcessed=false
	Updated []models.DocumentRecord // Existing records carrying the new version, IsProcessed=false
	Removed []models.DocumentRecord // Local records absent remotely and not agenda-flagged
}

// Counts summarizes a Diff.
type Counts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Counts returns the size of each set.
func (d Diff) Counts() Counts {
	return Counts{
		Added:   len(d.Added),
		Updated: len(d.Updated),
		Removed: len(d.Removed),
	}
}

// IsEmpty reports whether the local index is already current.
func (d Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Options carries the context the reconciler stamps onto new and updated records.
type Options struct {
	UserID     int64
	FolderPath string
	Now        time.Time
}

// SyncData holds both sides of a reconciliation run.
type SyncData struct {
	Remote []models.RemoteDocument
	Local  []models.DocumentRecord
}
