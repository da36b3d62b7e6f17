package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// settings keys
const (
	KeyLastRun     = "last_run"
	KeyWidgetCache = "widget_cache"
)

// SettingRepository is a key-value store for small state: last run status, widget cache
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetSetting retrieves a setting value, empty string if not set
func (r *SettingRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting value
func (r *SettingRepository) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	return withLockRetry(ctx, func() error {
		if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("set setting %s: %w", key, err)}
		}
		return nil
	})
}

// DeleteSetting removes a setting, missing key is not an error
func (r *SettingRepository) DeleteSetting(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes a setting into v, returns false if the key is not set
func (r *SettingRepository) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	value, err := r.GetSetting(ctx, key)
	if err != nil || value == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v encoded as json
func (r *SettingRepository) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	return r.SetSetting(ctx, key, string(data))
}
