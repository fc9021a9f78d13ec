package domain

import (
	"time"
)

// Direction identifies which way a transfer moves data.
// Only pulls from the remote source are supported.
type Direction string

const (
	DirectionPull Direction = "pull"
)

// IsValid reports whether the direction is one the agent supports
func (d Direction) IsValid() bool {
	return d == DirectionPull
}

// TransferRequest describes one transfer invocation.
// It is built once per run and never mutated afterwards.
type TransferRequest struct {
	Direction       Direction
	SourceSpec      string // remote address, e.g. user@host:/path
	DestinationPath string // local destination root
}

// TransferAttempt records one execution of the transfer tool.
// A timed-out attempt has TimedOut set and no meaningful exit code.
type TransferAttempt struct {
	Number    int
	ExitCode  int
	Stdout    string
	Stderr    string
	StartedAt time.Time
	Duration  time.Duration
	TimedOut  bool
}

// Succeeded reports whether this attempt completed with exit code 0
func (a *TransferAttempt) Succeeded() bool {
	return a != nil && !a.TimedOut && a.ExitCode == 0
}

// ChangeSummary is the structured result of classifying rsync output.
// Built once per successful attempt; immutable thereafter.
type ChangeSummary struct {
	NewFiles        int
	ModifiedFiles   int
	DeletedFiles    int
	NewFolders      int
	ModifiedFolders int

	SentBytes       int64
	ReceivedBytes   int64
	TotalSourceSize int64
	SpeedBPS        float64

	// Folder paths are relative to the destination root, deduplicated
	// and sorted. A path counted as new is never also counted modified.
	NewFolderPaths      []string
	ModifiedFolderPaths []string
}

// AnyChanges reports whether the transfer touched anything at all
func (s *ChangeSummary) AnyChanges() bool {
	return s.ReceivedBytes > 0 ||
		s.NewFiles > 0 || s.ModifiedFiles > 0 || s.DeletedFiles > 0 ||
		s.NewFolders > 0 || s.ModifiedFolders > 0
}

// TotalAffectedFolders returns the combined new+modified folder count
func (s *ChangeSummary) TotalAffectedFolders() int {
	return s.NewFolders + s.ModifiedFolders
}

// DiskSpaceInfo is a point-in-time disk usage snapshot for a path.
// Always freshly computed, never cached.
type DiskSpaceInfo struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

// UsedPercent returns the used fraction of the volume as 0-100
func (d DiskSpaceInfo) UsedPercent() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	return float64(d.UsedBytes) / float64(d.TotalBytes) * 100
}

// FreeGB returns free space in gibibytes
func (d DiskSpaceInfo) FreeGB() float64 {
	return float64(d.FreeBytes) / (1 << 30)
}

// TotalGB returns total space in gibibytes
func (d DiskSpaceInfo) TotalGB() float64 {
	return float64(d.TotalBytes) / (1 << 30)
}

// UsedGB returns used space in gibibytes
func (d DiskSpaceInfo) UsedGB() float64 {
	return float64(d.UsedBytes) / (1 << 30)
}

// RetryPolicy controls how often a failed transfer is re-attempted.
// Attempt k waits BaseDelay * 2^(k-1) before the next try.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Schedule is the persisted state of the recurring transfer job
type Schedule struct {
	Enabled  bool
	Interval time.Duration
}

// Outcome classifies how a run terminated
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeAborted Outcome = "aborted"
	OutcomeRefused Outcome = "refused"
)

// RunRecord is the persisted history entry for one orchestrator run
type RunRecord struct {
	ID            int64
	Direction     Direction
	SourceSpec    string
	StartedAt     time.Time
	Duration      time.Duration
	Outcome       Outcome
	Attempts      int
	ExitCode      int
	TimedOut      bool
	NewFiles      int
	ModifiedFiles int
	DeletedFiles  int
	NewFolders    int
	ReceivedBytes int64
	Message       string
	CreatedAt     time.Time
}

// TreeStats summarizes a directory subtree of the destination
type TreeStats struct {
	Path       string
	FileCount  int
	TotalBytes int64
}
