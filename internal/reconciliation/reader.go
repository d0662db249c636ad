package reconciliation

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"notecal/internal/logger"
	"notecal/pkg/models"
	"notecal/pkg/services"
)

// DataReader loads both sides of a reconciliation: the device cloud listing
// and the user's local document index.
type DataReader struct {
	device    services.DeviceClient
	documents services.DocumentStore
	log       zerolog.Logger
}

// NewDataReader creates a new data reader
func NewDataReader(device services.DeviceClient, documents services.DocumentStore) *DataReader {
	return &DataReader{
		device:    device,
		documents: documents,
		log:       logger.WithComponent("reconciliation-reader"),
	}
}

// Read fetches the remote listing of folderPath and the part of the local
// index of userID that belongs to the same folder, so both sides cover the
// same scope.
func (dr *DataReader) Read(ctx context.Context, userID int64, folderPath string) (*SyncData, error) {
	remote, err := dr.ReadRemote(ctx, folderPath)
	if err != nil {
		return nil, err
	}
	local, err := dr.ReadLocal(ctx, userID)
	if err != nil {
		return nil, err
	}

	scoped := ScopeToFolder(local, remote, folderPath)
	if skipped := len(local) - len(scoped); skipped > 0 {
		dr.log.Debug().
			Str("folder", folderPath).
			Int("other_folders", skipped).
			Msg("Local records outside the synced folder left untouched")
	}
	return &SyncData{Remote: remote, Local: scoped}, nil
}

// ScopeToFolder keeps the local records filed under folderPath. A record filed
// elsewhere is kept only when the remote listing names its id, which happens
// when a document was moved; it is then matched instead of inserted twice.
func ScopeToFolder(local []models.DocumentRecord, remote []models.RemoteDocument, folderPath string) []models.DocumentRecord {
	listed := make(map[string]struct{}, len(remote))
	for _, doc := range remote {
		listed[doc.ID] = struct{}{}
	}

	want := cleanFolder(folderPath)
	scoped := make([]models.DocumentRecord, 0, len(local))
	for _, rec := range local {
		if cleanFolder(rec.FolderPath) == want {
			scoped = append(scoped, rec)
			continue
		}
		if _, ok := listed[rec.RemoteID]; ok {
			scoped = append(scoped, rec)
		}
	}
	return scoped
}

func cleanFolder(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// ReadRemote lists the device folder. Entries without an id cannot be tracked
// and are skipped.
func (dr *DataReader) ReadRemote(ctx context.Context, folderPath string) ([]models.RemoteDocument, error) {
	const op = "ReadRemote"

	dr.log.Info().Str("folder", folderPath).Msg("Reading remote document listing")

	listing, err := dr.device.ListDocuments(ctx, folderPath)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list documents in %s: %w", op, folderPath, err)
	}

	docs := make([]models.RemoteDocument, 0, len(listing))
	notes := 0
	for i, doc := range listing {
		doc.ID = strings.TrimSpace(doc.ID)
		if doc.ID == "" {
			dr.log.Warn().
				Int("index", i).
				Str("name", doc.Name).
				Msg("Skipping remote document without id")
			continue
		}
		if doc.IsNote() {
			notes++
		}
		docs = append(docs, doc)
	}

	dr.log.Info().
		Int("total_entries", len(listing)).
		Int("notes", notes).
		Str("folder", folderPath).
		Msg("Remote listing read successfully")

	return docs, nil
}

// ReadLocal loads the local document index of a user.
func (dr *DataReader) ReadLocal(ctx context.Context, userID int64) ([]models.DocumentRecord, error) {
	const op = "ReadLocal"

	docs, err := dr.documents.ListDocuments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load document index for user %d: %w", op, userID, err)
	}

	dr.log.Debug().
		Int64("user_id", userID).
		Int("documents", len(docs)).
		Msg("Local document index loaded")

	return docs, nil
}
