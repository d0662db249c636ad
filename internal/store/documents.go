package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notecal/pkg/models"
)

const documentColumns = `id, user_id, remote_id, version, name, type, folder_path, last_modified,
	is_agenda, is_processed, recognized_text, processed_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.DocumentRecord, error) {
	var (
		doc          models.DocumentRecord
		lastModified string
		updatedAt    string
		text         sql.NullString
		processedAt  sql.NullString
	)
	err := row.Scan(&doc.ID, &doc.UserID, &doc.RemoteID, &doc.Version, &doc.Name, &doc.Type, &doc.FolderPath,
		&lastModified, &doc.IsAgenda, &doc.IsProcessed, &text, &processedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if doc.LastModified, err = parseTime(lastModified); err != nil {
		return nil, err
	}
	if doc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if doc.ProcessedAt, err = parseNullTime(processedAt); err != nil {
		return nil, err
	}
	if text.Valid {
		doc.RecognizedText = &text.String
	}
	return &doc, nil
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]models.DocumentRecord, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []models.DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		result = append(result, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListDocuments returns every indexed document of a user.
func (s *Store) ListDocuments(ctx context.Context, userID int64) ([]models.DocumentRecord, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM document_records WHERE user_id = ? ORDER BY id`, userID)
}

// ListUnprocessed returns the documents of a user still waiting for a pipeline run.
func (s *Store) ListUnprocessed(ctx context.Context, userID int64) ([]models.DocumentRecord, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM document_records WHERE user_id = ? AND is_processed = 0 ORDER BY id`, userID)
}

// GetDocument returns one document of a user.
func (s *Store) GetDocument(ctx context.Context, userID, documentID int64) (*models.DocumentRecord, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM document_records WHERE user_id = ? AND id = ?`, userID, documentID)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return doc, nil
}

// InsertDocument stores a new record and sets its ID.
func (s *Store) InsertDocument(ctx context.Context, doc *models.DocumentRecord) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO document_records (user_id, remote_id, version, name, type, folder_path, last_modified,
			is_agenda, is_processed, recognized_text, processed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.UserID, doc.RemoteID, doc.Version, doc.Name, doc.Type, doc.FolderPath, formatTime(doc.LastModified),
		boolInt(doc.IsAgenda), boolInt(doc.IsProcessed), doc.RecognizedText, nullTime(doc.ProcessedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.RemoteID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get document id: %w", err)
	}
	doc.ID = id
	return nil
}

// UpdateDocument overwrites the reconciled fields of a record.
func (s *Store) UpdateDocument(ctx context.Context, doc *models.DocumentRecord) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE document_records
		SET version = ?, name = ?, type = ?, folder_path = ?, last_modified = ?, is_processed = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		doc.Version, doc.Name, doc.Type, doc.FolderPath, formatTime(doc.LastModified), boolInt(doc.IsProcessed),
		formatTime(doc.UpdatedAt), doc.UserID, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document %d: %w", doc.ID, err)
	}
	return expectOne(res, fmt.Sprintf("document %d", doc.ID))
}

// DeleteDocument removes a record. Source links cascade.
func (s *Store) DeleteDocument(ctx context.Context, userID, documentID int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM document_records WHERE user_id = ? AND id = ?`, userID, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", documentID, err)
	}
	return expectOne(res, fmt.Sprintf("document %d", documentID))
}

// MarkProcessed stores the recognized text and flags the document as processed.
func (s *Store) MarkProcessed(ctx context.Context, documentID int64, recognizedText string, processedAt time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE document_records SET is_processed = 1, recognized_text = ?, processed_at = ?, updated_at = ? WHERE id = ?`,
		recognizedText, formatTime(processedAt), formatTime(processedAt), documentID)
	if err != nil {
		return fmt.Errorf("failed to mark document %d processed: %w", documentID, err)
	}
	return expectOne(res, fmt.Sprintf("document %d", documentID))
}

// SetAgenda flags or unflags a document as an agenda, which protects it from
// removal during reconciliation.
func (s *Store) SetAgenda(ctx context.Context, userID, documentID int64, agenda bool) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE document_records SET is_agenda = ? WHERE user_id = ? AND id = ?`, boolInt(agenda), userID, documentID)
	if err != nil {
		return fmt.Errorf("failed to update document %d: %w", documentID, err)
	}
	return expectOne(res, fmt.Sprintf("document %d", documentID))
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
