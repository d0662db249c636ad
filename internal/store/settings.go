package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notecal/internal/dbx"
)

// Setting returns a stored setting, or "" when it is unset.
func (s *Store) Setting(ctx context.Context, userID int64, category, key string) (string, error) {
	var value string
	err := s.q.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE user_id = ? AND category = ? AND key = ?`,
		userID, category, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to select setting %s.%s: %w", category, key, err)
	}
	return value, nil
}

// ListSettings returns every stored setting of a category.
func (s *Store) ListSettings(ctx context.Context, userID int64, category string) (map[string]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE user_id = ? AND category = ? ORDER BY key`, userID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to select settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetSetting inserts or replaces one setting.
func (s *Store) SetSetting(ctx context.Context, userID int64, category, key, value string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO settings (user_id, category, key, value, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, category, key, value, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to store setting %s.%s: %w", category, key, err)
	}
	return nil
}

// SetSettings stores several settings of one category atomically.
func (s *Store) SetSettings(ctx context.Context, userID int64, category string, values map[string]string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txStore := s.withTx(tx)
		for key, value := range values {
			if err := txStore.SetSetting(ctx, userID, category, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSetting removes a setting. Removing an unset setting is not an error.
func (s *Store) DeleteSetting(ctx context.Context, userID int64, category, key string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM settings WHERE user_id = ? AND category = ? AND key = ?`, userID, category, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s.%s: %w", category, key, err)
	}
	return nil
}
