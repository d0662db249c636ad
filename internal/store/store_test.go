package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecal/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insertTestDocument(t *testing.T, s *Store, userID int64, remoteID string) *models.DocumentRecord {
	t.Helper()
	doc := &models.DocumentRecord{
		UserID:       userID,
		RemoteID:     remoteID,
		Version:      1,
		Name:         "Agenda " + remoteID,
		Type:         models.DocumentTypeNote,
		FolderPath:   "/",
		LastModified: time.Date(2024, 1, 9, 18, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertDocument(context.Background(), doc))
	return doc
}

func insertTestCalendar(t *testing.T, s *Store, userID int64, name string, primary bool) *models.Calendar {
	t.Helper()
	cal := &models.Calendar{UserID: userID, Name: name, IsPrimary: primary}
	require.NoError(t, s.CreateCalendar(context.Background(), cal))
	return cal
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	doc := insertTestDocument(t, s, 1, "r-1")
	require.NotZero(t, doc.ID)

	got, err := s.GetDocument(ctx, 1, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.RemoteID)
	assert.Equal(t, doc.LastModified, got.LastModified)
	assert.False(t, got.IsProcessed)
	assert.Nil(t, got.RecognizedText)
	assert.Nil(t, got.ProcessedAt)

	processedAt := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkProcessed(ctx, doc.ID, "Dentist at 3", processedAt))

	got, err = s.GetDocument(ctx, 1, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.IsProcessed)
	require.NotNil(t, got.RecognizedText)
	assert.Equal(t, "Dentist at 3", *got.RecognizedText)
	require.NotNil(t, got.ProcessedAt)
	assert.True(t, processedAt.Equal(*got.ProcessedAt))

	got.Version = 2
	got.Name = "Renamed"
	got.IsProcessed = false
	require.NoError(t, s.UpdateDocument(ctx, got))

	pending, err := s.ListUnprocessed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.EqualValues(t, 2, pending[0].Version)
	assert.Equal(t, "Renamed", pending[0].Name)

	require.NoError(t, s.DeleteDocument(ctx, 1, doc.ID))
	_, err = s.GetDocument(ctx, 1, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentsAreScopedToUser(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	doc := insertTestDocument(t, s, 1, "r-1")
	insertTestDocument(t, s, 2, "r-1")

	_, err := s.GetDocument(ctx, 2, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteDocument(ctx, 2, doc.ID), ErrNotFound)

	docs, err := s.ListDocuments(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestInsertDocumentRejectsDuplicateRemoteID(t *testing.T) {
	s := openTestStore(t)
	insertTestDocument(t, s, 1, "r-1")

	err := s.InsertDocument(context.Background(), &models.DocumentRecord{
		UserID: 1, RemoteID: "r-1", Version: 1, Name: "dup", Type: models.DocumentTypeNote,
	})
	assert.Error(t, err)
}

func TestSetAgenda(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	doc := insertTestDocument(t, s, 1, "r-1")

	require.NoError(t, s.SetAgenda(ctx, 1, doc.ID, true))

	got, err := s.GetDocument(ctx, 1, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAgenda)

	assert.ErrorIs(t, s.SetAgenda(ctx, 1, 999, true), ErrNotFound)
}

func TestCalendarsPrimaryFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	insertTestCalendar(t, s, 1, "Family", false)
	first := insertTestCalendar(t, s, 1, "Work", true)
	second := insertTestCalendar(t, s, 1, "Home", true)
	insertTestCalendar(t, s, 2, "Other user", true)

	cals, err := s.ListCalendars(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cals, 3)
	assert.Equal(t, second.ID, cals[0].ID)
	assert.True(t, cals[0].IsPrimary)
	for _, c := range cals[1:] {
		assert.False(t, c.IsPrimary, c.Name)
	}
	assert.NotEqual(t, first.ID, cals[0].ID)
}

func TestEventsAndSourceLinks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	doc := insertTestDocument(t, s, 1, "r-1")
	cal := insertTestCalendar(t, s, 1, "Family", true)

	start := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	ev := &models.Event{
		UserID:           1,
		CalendarID:       cal.ID,
		Title:            "Dentist",
		StartTime:        start,
		EndTime:          start.Add(time.Hour),
		Source:           models.EventSourceOCR,
		SourceDocumentID: doc.ID,
		SourceLine:       "Dentist at 3",
	}
	require.NoError(t, s.InsertEvent(ctx, ev))
	assert.NotEmpty(t, ev.ID)

	link := &models.EventSourceLink{EventID: ev.ID, DocumentID: doc.ID, ExtractedLine: "Dentist at 3"}
	require.NoError(t, s.InsertSourceLink(ctx, link))
	assert.NotZero(t, link.ID)

	events, err := s.ListEvents(ctx, 1, EventFilter{DocumentID: doc.ID, Source: models.EventSourceOCR})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist", events[0].Title)
	assert.True(t, start.Equal(events[0].StartTime))
	assert.Equal(t, doc.ID, events[0].SourceDocumentID)

	require.NoError(t, s.DeleteEvent(ctx, ev.ID))
	links, err := s.ListSourceLinks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, links, "links cascade with their event")

	assert.ErrorIs(t, s.DeleteEvent(ctx, ev.ID), ErrNotFound)
}

func TestSourceLinkRequiresExistingEvent(t *testing.T) {
	s := openTestStore(t)
	doc := insertTestDocument(t, s, 1, "r-1")

	err := s.InsertSourceLink(context.Background(), &models.EventSourceLink{
		EventID: "missing", DocumentID: doc.ID, ExtractedLine: "Lunch at 12",
	})
	assert.Error(t, err)
}

func TestDeletingDocumentCascadesLinks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	doc := insertTestDocument(t, s, 1, "r-1")
	cal := insertTestCalendar(t, s, 1, "Family", true)

	ev := &models.Event{UserID: 1, CalendarID: cal.ID, Title: "Gym", StartTime: time.Now(), EndTime: time.Now()}
	require.NoError(t, s.InsertEvent(ctx, ev))
	require.NoError(t, s.InsertSourceLink(ctx, &models.EventSourceLink{EventID: ev.ID, DocumentID: doc.ID, ExtractedLine: "Gym"}))

	require.NoError(t, s.DeleteDocument(ctx, 1, doc.ID))

	links, err := s.ListSourceLinks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	value, err := s.Setting(ctx, 1, "ocr", "provider")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, s.SetSetting(ctx, 1, "ocr", "provider", "openai"))
	require.NoError(t, s.SetSetting(ctx, 1, "ocr", "provider", "gemini"))
	require.NoError(t, s.SetSettings(ctx, 1, "ocr", map[string]string{
		"gemini_api_key": "g-key",
		"openai_api_key": "sk-key",
	}))

	value, err = s.Setting(ctx, 1, "ocr", "provider")
	require.NoError(t, err)
	assert.Equal(t, "gemini", value)

	all, err := s.ListSettings(ctx, 1, "ocr")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"provider": "gemini", "gemini_api_key": "g-key", "openai_api_key": "sk-key"}, all)

	require.NoError(t, s.DeleteSetting(ctx, 1, "ocr", "openai_api_key"))
	value, err = s.Setting(ctx, 1, "ocr", "openai_api_key")
	require.NoError(t, err)
	assert.Empty(t, value)

	other, err := s.ListSettings(ctx, 2, "ocr")
	require.NoError(t, err)
	assert.Empty(t, other)
}
