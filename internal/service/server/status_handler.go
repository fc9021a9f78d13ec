package server

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
	"github.com/vertextoedge/remote-pull-agent/internal/service/status"
)

const defaultRunsLimit = 20

// StatusHandler serves disk, remote-agent and run-history queries
type StatusHandler struct {
	status *status.Service
	runs   port.RunRepository
	logger *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(stat *status.Service, runs port.RunRepository, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		status: stat,
		runs:   runs,
		logger: logger,
	}
}

// HandleDisk reports current disk usage of the local volumes
func (h *StatusHandler) HandleDisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.status.DiskReport()
	if err != nil {
		h.logger.Error("disk report failed", zap.Error(err))
		http.Error(w, "Failed to measure disk usage", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"report": report})
}

// HandleRemote queries the remote agent's status endpoint
func (h *StatusHandler) HandleRemote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.status.RemoteStatus(r.Context())
	if err != nil {
		if domain.IsConfiguration(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Warn("remote status query failed", zap.Error(err))
		http.Error(w, "Remote agent unreachable: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]string{"report": report})
}

// runView is the JSON shape of one run history entry
type runView struct {
	ID            int64  `json:"id"`
	Direction     string `json:"direction"`
	Source        string `json:"source,omitempty"`
	StartedAt     string `json:"started_at"`
	Duration      string `json:"duration"`
	Outcome       string `json:"outcome"`
	Attempts      int    `json:"attempts,omitempty"`
	ExitCode      int    `json:"exit_code,omitempty"`
	TimedOut      bool   `json:"timed_out,omitempty"`
	NewFiles      int    `json:"new_files,omitempty"`
	ModifiedFiles int    `json:"modified_files,omitempty"`
	DeletedFiles  int    `json:"deleted_files,omitempty"`
	NewFolders    int    `json:"new_folders,omitempty"`
	ReceivedBytes int64  `json:"received_bytes,omitempty"`
	Message       string `json:"message,omitempty"`
}

// HandleRuns lists recent run history, newest first
func (h *StatusHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.runs.RecentRuns(limit)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	views := make([]runView, 0, len(records))
	for _, rec := range records {
		views = append(views, runView{
			ID:            rec.ID,
			Direction:     string(rec.Direction),
			Source:        rec.SourceSpec,
			StartedAt:     rec.StartedAt.Format(time.RFC3339),
			Duration:      rec.Duration.String(),
			Outcome:       string(rec.Outcome),
			Attempts:      rec.Attempts,
			ExitCode:      rec.ExitCode,
			TimedOut:      rec.TimedOut,
			NewFiles:      rec.NewFiles,
			ModifiedFiles: rec.ModifiedFiles,
			DeletedFiles:  rec.DeletedFiles,
			NewFolders:    rec.NewFolders,
			ReceivedBytes: rec.ReceivedBytes,
			Message:       rec.Message,
		})
	}

	writeJSON(w, map[string]interface{}{"runs": views})
}
