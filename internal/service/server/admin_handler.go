package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// AdminHandler handles transfer and schedule control requests
type AdminHandler struct {
	agent    Agent
	schedule port.ScheduleStore
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(agent Agent, schedule port.ScheduleStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		agent:    agent,
		schedule: schedule,
		logger:   logger,
	}
}

// HandleRun triggers one transfer run. The run executes in the
// background; an overlapping trigger is refused with 409.
func (h *AdminHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The run outlives the request, so it gets its own context. Only an
	// immediate refusal is reported synchronously.
	refused := make(chan error, 1)
	go func() {
		err := h.agent.RunTransfer(context.Background(), domain.DirectionPull)
		if errors.Is(err, domain.ErrRunInProgress) {
			refused <- err
			return
		}
		if err != nil {
			h.logger.Warn("triggered transfer run failed", zap.Error(err))
		}
	}()

	select {
	case <-refused:
		http.Error(w, "A transfer run is already in progress", http.StatusConflict)
		return
	case <-time.After(100 * time.Millisecond):
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "run started"})
}

// HandleSource reads or replaces the transfer source spec
func (h *AdminHandler) HandleSource(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		source, err := h.agent.CurrentSource()
		if err != nil {
			h.logger.Error("failed to resolve source", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"source": source})

	case http.MethodPost:
		var body struct {
			Source string `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if err := h.agent.SetSourcePath(body.Source); err != nil {
			if errors.Is(err, domain.ErrInvalidSourceSpec) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.logger.Error("failed to store source", zap.Error(err))
			http.Error(w, "Failed to store source", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"status": "source updated", "source": body.Source})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleScheduleEnable turns the recurring schedule on
func (h *AdminHandler) HandleScheduleEnable(w http.ResponseWriter, r *http.Request) {
	h.setScheduleEnabled(w, r, true)
}

// HandleScheduleDisable turns the recurring schedule off
func (h *AdminHandler) HandleScheduleDisable(w http.ResponseWriter, r *http.Request) {
	h.setScheduleEnabled(w, r, false)
}

func (h *AdminHandler) setScheduleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	if enabled {
		err = h.schedule.Enable()
	} else {
		err = h.schedule.Disable()
	}
	if err != nil {
		h.logger.Error("failed to update schedule", zap.Error(err))
		http.Error(w, "Failed to update schedule", http.StatusInternalServerError)
		return
	}

	h.writeSchedule(w)
}

// HandleScheduleInterval reads or replaces the schedule interval
func (h *AdminHandler) HandleScheduleInterval(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeSchedule(w)

	case http.MethodPost:
		var body struct {
			Interval string `json:"interval"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		interval, err := time.ParseDuration(body.Interval)
		if err != nil {
			http.Error(w, "Invalid interval, expected a Go duration like 6h or 30m", http.StatusBadRequest)
			return
		}
		if err := h.schedule.SetInterval(interval); err != nil {
			if domain.IsConfiguration(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.logger.Error("failed to update schedule interval", zap.Error(err))
			http.Error(w, "Failed to update schedule interval", http.StatusInternalServerError)
			return
		}
		h.writeSchedule(w)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) writeSchedule(w http.ResponseWriter) {
	sched, err := h.schedule.Current()
	if err != nil {
		h.logger.Error("failed to read schedule", zap.Error(err))
		http.Error(w, "Failed to read schedule", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"enabled":  sched.Enabled,
		"interval": sched.Interval.String(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
