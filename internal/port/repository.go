package port

import (
	"time"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

// RunRepository persists the history of orchestrator runs
type RunRepository interface {
	// RecordRun inserts a run record and fills in its ID
	RecordRun(record *domain.RunRecord) error

	// RecentRuns returns the most recent runs, newest first
	RecentRuns(limit int) ([]*domain.RunRecord, error)

	// PruneRuns deletes records older than the given age.
	// Returns the number of deleted rows.
	PruneRuns(olderThan time.Duration) (int64, error)
}

// ScheduleStore persists and edits the recurring-transfer schedule.
// It replaces direct manipulation of any scheduler definition text.
type ScheduleStore interface {
	Enable() error
	Disable() error
	SetInterval(d time.Duration) error

	// Current returns the persisted schedule state
	Current() (domain.Schedule, error)
}
