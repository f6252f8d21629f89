package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const (
	KeyRemindersEnabled = "reminders_enabled"
	KeyDefaultLeadMin   = "default_lead_minutes"

	DefaultRemindersEnabled = true
	DefaultLeadMinutes      = 30
)

// RemindersEnabled reads the global reminder switch, true when unset.
func (s *Store) RemindersEnabled(ctx context.Context) (bool, error) {
	v, ok, err := s.setting(ctx, KeyRemindersEnabled)
	if err != nil || !ok {
		return DefaultRemindersEnabled, err
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return DefaultRemindersEnabled, fmt.Errorf("setting %s: %w", KeyRemindersEnabled, err)
	}
	return enabled, nil
}

// DefaultLeadMinutes reads the default reminder lead, 30 when unset.
func (s *Store) DefaultLeadMinutes(ctx context.Context) (int, error) {
	v, ok, err := s.setting(ctx, KeyDefaultLeadMin)
	if err != nil || !ok {
		return DefaultLeadMinutes, err
	}
	minutes, err := strconv.Atoi(v)
	if err != nil {
		return DefaultLeadMinutes, fmt.Errorf("setting %s: %w", KeyDefaultLeadMin, err)
	}
	return minutes, nil
}

func (s *Store) SetRemindersEnabled(ctx context.Context, enabled bool) error {
	return s.putSetting(ctx, KeyRemindersEnabled, strconv.FormatBool(enabled))
}

func (s *Store) SetDefaultLeadMinutes(ctx context.Context, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("default lead must not be negative, got %d", minutes)
	}
	return s.putSetting(ctx, KeyDefaultLeadMin, strconv.Itoa(minutes))
}

func (s *Store) setting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) putSetting(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}
