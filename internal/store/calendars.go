package store

import (
	"context"
	"fmt"
	"time"

	"notecal/internal/dbx"
	"notecal/pkg/models"
)

// ListCalendars returns the calendars of a user, primary first, then by creation order.
func (s *Store) ListCalendars(ctx context.Context, userID int64) ([]models.Calendar, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, is_primary, created_at FROM calendars
		WHERE user_id = ? ORDER BY is_primary DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select calendars: %w", err)
	}
	defer rows.Close()

	var result []models.Calendar
	for rows.Next() {
		var (
			cal       models.Calendar
			createdAt string
		)
		if err := rows.Scan(&cal.ID, &cal.UserID, &cal.Name, &cal.IsPrimary, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan calendar: %w", err)
		}
		if cal.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, cal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateCalendar stores a calendar and sets its ID. A new primary calendar
// demotes the user's previous primary one.
func (s *Store) CreateCalendar(ctx context.Context, cal *models.Calendar) error {
	if cal.CreatedAt.IsZero() {
		cal.CreatedAt = time.Now()
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if cal.IsPrimary {
			if _, err := tx.ExecContext(ctx,
				`UPDATE calendars SET is_primary = 0 WHERE user_id = ?`, cal.UserID); err != nil {
				return fmt.Errorf("failed to demote primary calendar: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO calendars (user_id, name, is_primary, created_at) VALUES (?, ?, ?, ?)`,
			cal.UserID, cal.Name, boolInt(cal.IsPrimary), formatTime(cal.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert calendar: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get calendar id: %w", err)
		}
		cal.ID = id
		return nil
	})
}
