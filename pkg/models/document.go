package models

import "time"

// Remote document type tags as reported by the device cloud.
const (
	DocumentTypeNote   = "DocumentType"   // A notebook or annotated PDF
	DocumentTypeFolder = "CollectionType" // A folder/container
)

// RemoteDocument is one entry of the device cloud's document listing.
type RemoteDocument struct {
	ID           string    // Remote document identifier
	Version      int64     // Opaque version, changes on every edit
	Name         string    // Display name
	Type         string    // DocumentType, CollectionType, ...
	LastModified time.Time // Last modification reported by the device cloud
}

// IsNote reports whether the remote entry is a real note and not a container.
func (d RemoteDocument) IsNote() bool {
	return d.Type == DocumentTypeNote
}

// DocumentRecord is the local index entry mirroring a RemoteDocument.
type DocumentRecord struct {
	ID           int64  // Local identifier ("process document N")
	UserID       int64  // Owning user
	RemoteID     string // RemoteDocument.ID
	Version      int64  // RemoteDocument.Version at last reconciliation
	Name         string
	Type         string
	FolderPath   string
	LastModified time.Time

	IsAgenda    bool // Survives reconciliation even when absent remotely
	IsProcessed bool // Cleared whenever the remote version changes

	RecognizedText *string    // Full OCR output, nil until processed
	ProcessedAt    *time.Time // Last successful pipeline run
	UpdatedAt      time.Time
}
