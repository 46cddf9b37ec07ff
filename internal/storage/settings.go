package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SetValue stores a buffer switch
func (s *Store) SetValue(ctx context.Context, key string, value bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_unix_millis) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_unix_millis = excluded.updated_unix_millis`,
		key, boolToInt(value), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// GetValue returns a stored buffer switch, or def when it was never stored
func (s *Store) GetValue(ctx context.Context, key string, def bool) (bool, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return v != 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
