package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notecal/pkg/models"
)

// EventFilter narrows ListEvents.
type EventFilter struct {
	DocumentID int64  // only events extracted from this document, 0 for all
	Source     string // only events with this provenance tag, "" for all
}

// InsertEvent stores an event. An empty ID is replaced with a new UUID.
func (s *Store) InsertEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	sourceDoc := sql.NullInt64{Int64: event.SourceDocumentID, Valid: event.SourceDocumentID != 0}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO events (id, user_id, calendar_id, title, start_time, end_time, all_day,
			source, source_document_id, source_line, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.CalendarID, event.Title, formatTime(event.StartTime), formatTime(event.EndTime),
		boolInt(event.AllDay), event.Source, sourceDoc, event.SourceLine, formatTime(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event. Its source links cascade.
func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return expectOne(res, "event "+eventID)
}

// InsertSourceLink stores the link between an event and its document line and sets its ID.
func (s *Store) InsertSourceLink(ctx context.Context, link *models.EventSourceLink) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	res, err := s.q.ExecContext(ctx,
		`INSERT INTO event_source_links (event_id, document_id, extracted_line, created_at) VALUES (?, ?, ?, ?)`,
		link.EventID, link.DocumentID, link.ExtractedLine, formatTime(link.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert source link for event %s: %w", link.EventID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get source link id: %w", err)
	}
	link.ID = id
	return nil
}

// ListSourceLinks returns the source links of a document in creation order.
func (s *Store) ListSourceLinks(ctx context.Context, documentID int64) ([]models.EventSourceLink, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, event_id, document_id, extracted_line, created_at FROM event_source_links
		WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select source links: %w", err)
	}
	defer rows.Close()

	var result []models.EventSourceLink
	for rows.Next() {
		var (
			link      models.EventSourceLink
			createdAt string
		)
		if err := rows.Scan(&link.ID, &link.EventID, &link.DocumentID, &link.ExtractedLine, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan source link: %w", err)
		}
		if link.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListEvents returns the events of a user ordered by start time.
func (s *Store) ListEvents(ctx context.Context, userID int64, filter EventFilter) ([]models.Event, error) {
	query := `SELECT id, user_id, calendar_id, title, start_time, end_time, all_day,
		source, source_document_id, source_line, created_at FROM events WHERE user_id = ?`
	args := []any{userID}
	if filter.DocumentID != 0 {
		query += ` AND source_document_id = ?`
		args = append(args, filter.DocumentID)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY start_time, id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	defer rows.Close()

	var result []models.Event
	for rows.Next() {
		var (
			ev                    models.Event
			start, end, createdAt string
			sourceDoc             sql.NullInt64
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.CalendarID, &ev.Title, &start, &end, &ev.AllDay,
			&ev.Source, &sourceDoc, &ev.SourceLine, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if ev.StartTime, err = parseTime(start); err != nil {
			return nil, err
		}
		if ev.EndTime, err = parseTime(end); err != nil {
			return nil, err
		}
		if ev.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		ev.SourceDocumentID = sourceDoc.Int64
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
