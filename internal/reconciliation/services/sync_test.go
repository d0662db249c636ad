package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecal/internal/reconciliation"
	"notecal/internal/store"
	"notecal/pkg/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeDevice struct {
	mu       sync.Mutex
	listing  []models.RemoteDocument
	byFolder map[string][]models.RemoteDocument
	calls    int
}

func (f *fakeDevice) ListDocuments(_ context.Context, folderPath string) ([]models.RemoteDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.byFolder != nil {
		return f.byFolder[folderPath], nil
	}
	return f.listing, nil
}

func (f *fakeDevice) DownloadWithAnnotations(context.Context, string) ([]byte, error) {
	return nil, errors.New("not used")
}

// flakyStore fails updates of one remote id and otherwise delegates.
type flakyStore struct {
	*store.Store
	failRemoteID string
}

func (s *flakyStore) UpdateDocument(ctx context.Context, doc *models.DocumentRecord) error {
	if doc.RemoteID == s.failRemoteID {
		return errors.New("database is locked")
	}
	return s.Store.UpdateDocument(ctx, doc)
}

func note(id string, version int64) models.RemoteDocument {
	return models.RemoteDocument{
		ID: id, Version: version, Name: "Note " + id, Type: models.DocumentTypeNote,
		LastModified: time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC),
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSyncDocumentsAppliesDiff(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	clock := fixedClock{t: time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)}

	for _, d := range []*models.DocumentRecord{
		{UserID: 1, RemoteID: "a", Version: 1, Name: "a", Type: models.DocumentTypeNote, FolderPath: "/", IsProcessed: true},
		{UserID: 1, RemoteID: "b", Version: 4, Name: "b", Type: models.DocumentTypeNote, FolderPath: "/", IsProcessed: true},
		{UserID: 1, RemoteID: "gone", Version: 1, Name: "gone", Type: models.DocumentTypeNote, FolderPath: "/"},
		{UserID: 1, RemoteID: "agenda", Version: 1, Name: "agenda", Type: models.DocumentTypeNote, FolderPath: "/", IsAgenda: true},
	} {
		require.NoError(t, st.InsertDocument(ctx, d))
	}

	device := &fakeDevice{listing: []models.RemoteDocument{note("a", 1), note("b", 5), note("c", 1)}}
	svc := NewSyncService(reconciliation.NewDataReader(device, st), st, clock)

	result, err := svc.SyncDocuments(ctx, 1, "/")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.Counts{Added: 1, Updated: 1, Removed: 1}, result.Counts)
	assert.Empty(t, result.Failures)

	docs, err := st.ListDocuments(ctx, 1)
	require.NoError(t, err)
	byRemote := map[string]models.DocumentRecord{}
	for _, d := range docs {
		byRemote[d.RemoteID] = d
	}
	assert.Len(t, byRemote, 4)
	assert.Contains(t, byRemote, "agenda")
	assert.NotContains(t, byRemote, "gone")
	assert.EqualValues(t, 5, byRemote["b"].Version)
	assert.False(t, byRemote["b"].IsProcessed)
	assert.True(t, byRemote["a"].IsProcessed)

	again, err := svc.SyncDocuments(ctx, 1, "/")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.Counts{}, again.Counts)
}

func TestSyncDocumentsLeavesOtherFoldersAlone(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	device := &fakeDevice{byFolder: map[string][]models.RemoteDocument{
		"/Agenda": {note("a1", 1)},
		"/Work":   {note("w1", 1)},
	}}
	svc := NewSyncService(reconciliation.NewDataReader(device, st), st, nil)

	first, err := svc.SyncDocuments(ctx, 1, "/Agenda")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.Counts{Added: 1}, first.Counts)

	second, err := svc.SyncDocuments(ctx, 1, "/Work")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.Counts{Added: 1}, second.Counts)

	docs, err := st.ListDocuments(ctx, 1)
	require.NoError(t, err)
	folders := map[string]string{}
	for _, d := range docs {
		folders[d.RemoteID] = d.FolderPath
	}
	assert.Equal(t, map[string]string{"a1": "/Agenda", "w1": "/Work"}, folders)

	again, err := svc.SyncDocuments(ctx, 1, "/Agenda")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.Counts{}, again.Counts)
}

func TestSyncDocumentsIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	for _, id := range []string{"a", "b"} {
		require.NoError(t, st.InsertDocument(ctx, &models.DocumentRecord{
			UserID: 1, RemoteID: id, Version: 1, Name: id, Type: models.DocumentTypeNote,
		}))
	}

	flaky := &flakyStore{Store: st, failRemoteID: "a"}
	device := &fakeDevice{listing: []models.RemoteDocument{note("a", 2), note("b", 2), note("c", 1)}}
	svc := NewSyncService(reconciliation.NewDataReader(device, flaky), flaky, nil)

	result, err := svc.SyncDocuments(ctx, 1, "/")

	require.NoError(t, err)
	assert.Equal(t, reconciliation.Counts{Added: 1, Updated: 1}, result.Counts)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "a", result.Failures[0].RemoteID)
	assert.Equal(t, ActionUpdate, result.Failures[0].Action)
	assert.Contains(t, result.Failures[0].Error, "database is locked")
}

func TestSyncDocumentsSerializesPerUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	device := &fakeDevice{listing: []models.RemoteDocument{note("a", 1), note("b", 1)}}
	svc := NewSyncService(reconciliation.NewDataReader(device, st), st, nil)

	var wg sync.WaitGroup
	results := make([]*SyncResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.SyncDocuments(ctx, 1, "/")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	added := 0
	for _, r := range results {
		require.NotNil(t, r)
		added += r.Added
		assert.Empty(t, r.Failures)
	}
	assert.Equal(t, 2, added, "documents must be inserted exactly once")

	docs, err := st.ListDocuments(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSyncDocumentsLockHonorsContext(t *testing.T) {
	svc := NewSyncService(nil, nil, nil)

	unlock, err := svc.lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.SyncDocuments(ctx, 1, "/")
	assert.ErrorIs(t, err, context.Canceled)
}
