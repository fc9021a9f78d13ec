package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Ensure Store implements port.ScheduleStore
var _ port.ScheduleStore = (*Store)(nil)

// EnsureSchedule seeds the schedule row from the given defaults if no
// row exists yet. Runtime edits always win over config defaults.
func (s *Store) EnsureSchedule(defaults domain.Schedule) error {
	_, err := s.db.Exec(`
		INSERT INTO schedule (id, enabled, interval_seconds)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, defaults.Enabled, int64(defaults.Interval.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to seed schedule: %w", err)
	}
	return nil
}

// Enable turns the recurring transfer on
func (s *Store) Enable() error {
	return s.setEnabled(true)
}

// Disable turns the recurring transfer off
func (s *Store) Disable() error {
	return s.setEnabled(false)
}

func (s *Store) setEnabled(enabled bool) error {
	result, err := s.db.Exec(`
		UPDATE schedule
		SET enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, enabled)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetInterval changes the recurring-transfer interval
func (s *Store) SetInterval(d time.Duration) error {
	if d < time.Minute {
		return domain.NewConfigurationError("schedule.interval", "must be at least 1m")
	}

	result, err := s.db.Exec(`
		UPDATE schedule
		SET interval_seconds = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, int64(d.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to update schedule interval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Current returns the persisted schedule state
func (s *Store) Current() (domain.Schedule, error) {
	var enabled bool
	var intervalSeconds int64

	err := s.db.QueryRow(`
		SELECT enabled, interval_seconds FROM schedule WHERE id = 1
	`).Scan(&enabled, &intervalSeconds)
	if err == sql.ErrNoRows {
		return domain.Schedule{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("failed to read schedule: %w", err)
	}

	return domain.Schedule{
		Enabled:  enabled,
		Interval: time.Duration(intervalSeconds) * time.Second,
	}, nil
}
