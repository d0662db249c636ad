package reconciliation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecal/pkg/models"
)

var (
	t0   = time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC)
	now  = time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)
	opts = Options{UserID: 1, FolderPath: "/Agenda", Now: now}
)

func note(id string, version int64) models.RemoteDocument {
	return models.RemoteDocument{ID: id, Version: version, Name: "Note " + id, Type: models.DocumentTypeNote, LastModified: t0}
}

func record(dbID int64, remoteID string, version int64) models.DocumentRecord {
	return models.DocumentRecord{
		ID: dbID, UserID: 1, RemoteID: remoteID, Version: version, Name: "Note " + remoteID,
		Type: models.DocumentTypeNote, IsProcessed: true,
	}
}

// apply mimics persisting a Diff onto a local index.
func apply(local []models.DocumentRecord, diff Diff) []models.DocumentRecord {
	byID := make(map[string]models.DocumentRecord)
	var order []string
	for _, rec := range local {
		byID[rec.RemoteID] = rec
		order = append(order, rec.RemoteID)
	}
	for _, rec := range diff.Updated {
		byID[rec.RemoteID] = rec
	}
	for _, rec := range diff.Removed {
		delete(byID, rec.RemoteID)
	}
	next := int64(1000)
	for _, rec := range diff.Added {
		rec.ID = next
		next++
		byID[rec.RemoteID] = rec
		order = append(order, rec.RemoteID)
	}

	var out []models.DocumentRecord
	for _, id := range order {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
			delete(byID, id)
		}
	}
	return out
}

func TestReconcileScenario(t *testing.T) {
	remote := []models.RemoteDocument{note("a", 1), note("b", 5), note("c", 1)}
	local := []models.DocumentRecord{record(1, "a", 1), record(2, "b", 4), record(3, "gone", 1)}

	diff := Reconcile(remote, local, opts)

	assert.Equal(t, Counts{Added: 1, Updated: 1, Removed: 1}, diff.Counts())

	require.Len(t, diff.Added, 1)
	added := diff.Added[0]
	assert.Equal(t, "c", added.RemoteID)
	assert.EqualValues(t, 1, added.UserID)
	assert.Equal(t, "/Agenda", added.FolderPath)
	assert.False(t, added.IsProcessed)
	assert.Zero(t, added.ID)

	require.Len(t, diff.Updated, 1)
	updated := diff.Updated[0]
	assert.EqualValues(t, 2, updated.ID)
	assert.EqualValues(t, 5, updated.Version)
	assert.False(t, updated.IsProcessed, "a new version must be reprocessed")
	assert.Equal(t, now, updated.UpdatedAt)

	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "gone", diff.Removed[0].RemoteID)
}

func TestReconcileIsIdempotent(t *testing.T) {
	remote := []models.RemoteDocument{note("a", 1), note("b", 5), note("c", 1)}
	local := []models.DocumentRecord{record(1, "a", 1), record(2, "b", 4), record(3, "gone", 1)}

	first := Reconcile(remote, local, opts)
	second := Reconcile(remote, apply(local, first), opts)

	assert.True(t, second.IsEmpty(), "%+v", second.Counts())
}

func TestReconcileNeverRemovesAgendaDocuments(t *testing.T) {
	agenda := record(1, "family-agenda", 3)
	agenda.IsAgenda = true

	diff := Reconcile(nil, []models.DocumentRecord{agenda, record(2, "scratch", 1)}, opts)

	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "scratch", diff.Removed[0].RemoteID)
}

func TestReconcileIgnoresFolders(t *testing.T) {
	folder := models.RemoteDocument{ID: "f", Version: 1, Name: "Agenda", Type: models.DocumentTypeFolder}

	diff := Reconcile([]models.RemoteDocument{folder}, nil, opts)

	assert.True(t, diff.IsEmpty())
}

func TestReconcileDuplicateRemoteIDVisitedOnce(t *testing.T) {
	remote := []models.RemoteDocument{note("a", 2), note("a", 3)}

	diff := Reconcile(remote, nil, opts)

	require.Len(t, diff.Added, 1)
	assert.EqualValues(t, 2, diff.Added[0].Version)
}

func TestReconcileSetsAreDisjoint(t *testing.T) {
	// Exhaust small combinations of remote presence, local presence, version match and agenda flag.
	for mask := 0; mask < 1<<8; mask++ {
		var remote []models.RemoteDocument
		var local []models.DocumentRecord
		for i := 0; i < 2; i++ {
			bits := mask >> (i * 4)
			id := fmt.Sprintf("doc-%d", i)
			if bits&1 != 0 {
				remote = append(remote, note(id, 2))
			}
			if bits&2 != 0 {
				version := int64(2)
				if bits&4 != 0 {
					version = 1
				}
				rec := record(int64(i+1), id, version)
				rec.IsAgenda = bits&8 != 0
				local = append(local, rec)
			}
		}

		diff := Reconcile(remote, local, opts)

		seen := map[string]string{}
		for set, recs := range map[string][]models.DocumentRecord{"added": diff.Added, "updated": diff.Updated, "removed": diff.Removed} {
			for _, rec := range recs {
				prev, dup := seen[rec.RemoteID]
				require.False(t, dup, "mask %08b: %s in %s and %s", mask, rec.RemoteID, prev, set)
				seen[rec.RemoteID] = set
			}
		}
		for _, rec := range diff.Removed {
			require.False(t, rec.IsAgenda, "mask %08b", mask)
		}
		require.True(t, Reconcile(remote, apply(local, diff), opts).IsEmpty(), "mask %08b", mask)
	}
}
