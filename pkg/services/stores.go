package services

import (
	"context"
	"time"

	"notecal/pkg/models"
)

// DocumentStore persists the local document index.
type DocumentStore interface {
	// ListDocuments returns every indexed document of a user.
	ListDocuments(ctx context.Context, userID int64) ([]models.DocumentRecord, error)

	// GetDocument returns one document of a user, or an error matching store.ErrNotFound.
	GetDocument(ctx context.Context, userID, documentID int64) (*models.DocumentRecord, error)

	InsertDocument(ctx context.Context, doc *models.DocumentRecord) error
	UpdateDocument(ctx context.Context, doc *models.DocumentRecord) error
	DeleteDocument(ctx context.Context, userID, documentID int64) error

	// MarkProcessed stores the recognized text and flags the document as processed.
	MarkProcessed(ctx context.Context, documentID int64, recognizedText string, processedAt time.Time) error
}

// CalendarStore resolves the calendars of a user.
type CalendarStore interface {
	ListCalendars(ctx context.Context, userID int64) ([]models.Calendar, error)
}

// EventStore persists calendar events and their source links.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, eventID string) error
	InsertSourceLink(ctx context.Context, link *models.EventSourceLink) error
}

// SettingsProvider resolves user settings by category and key.
// An unset value is returned as an empty string without error.
type SettingsProvider interface {
	Setting(ctx context.Context, userID int64, category, key string) (string, error)
}

// DeviceClient is the subset of the note device cloud API this core uses.
type DeviceClient interface {
	ListDocuments(ctx context.Context, folderPath string) ([]models.RemoteDocument, error)
	DownloadWithAnnotations(ctx context.Context, remoteID string) ([]byte, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }
