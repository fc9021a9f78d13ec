package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Ensure Store implements port.RunRepository
var _ port.RunRepository = (*Store)(nil)

// RecordRun inserts a run record and fills in its ID
func (s *Store) RecordRun(record *domain.RunRecord) error {
	query := `
		INSERT INTO runs (
			direction, source_spec, started_at, duration_ms, outcome,
			attempts, exit_code, timed_out,
			new_files, modified_files, deleted_files, new_folders,
			received_bytes, message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		string(record.Direction), record.SourceSpec,
		record.StartedAt.UTC(), record.Duration.Milliseconds(),
		string(record.Outcome), record.Attempts, record.ExitCode, record.TimedOut,
		record.NewFiles, record.ModifiedFiles, record.DeletedFiles, record.NewFolders,
		record.ReceivedBytes, record.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	record.ID = id
	return nil
}

// RecentRuns returns the most recent runs, newest first
func (s *Store) RecentRuns(limit int) ([]*domain.RunRecord, error) {
	query := `
		SELECT id, direction, source_spec, started_at, duration_ms, outcome,
			   attempts, exit_code, timed_out,
			   new_files, modified_files, deleted_files, new_folders,
			   received_bytes, message, created_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []*domain.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// PruneRuns deletes records older than the given age
func (s *Store) PruneRuns(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

func scanRun(rows *sql.Rows) (*domain.RunRecord, error) {
	record := &domain.RunRecord{}
	var direction, outcome string
	var durationMS int64
	var message sql.NullString

	err := rows.Scan(
		&record.ID, &direction, &record.SourceSpec,
		&record.StartedAt, &durationMS, &outcome,
		&record.Attempts, &record.ExitCode, &record.TimedOut,
		&record.NewFiles, &record.ModifiedFiles, &record.DeletedFiles, &record.NewFolders,
		&record.ReceivedBytes, &message, &record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	record.Direction = domain.Direction(direction)
	record.Duration = time.Duration(durationMS) * time.Millisecond
	record.Outcome = domain.Outcome(outcome)
	if message.Valid {
		record.Message = message.String
	}
	return record, nil
}
