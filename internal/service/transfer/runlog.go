package transfer

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

// RunLog is the append-only, timestamped record of every transfer
// attempt. One rotating file per category: transfer traffic and errors.
// Full process output is appended before classification so post-mortem
// diagnosis never depends on live state.
type RunLog struct {
	mu       sync.Mutex
	transfer *lumberjack.Logger
	errors   *lumberjack.Logger
}

// NewRunLog creates a run log writing into dir
func NewRunLog(dir string) *RunLog {
	return &RunLog{
		transfer: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "transfer.log"),
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		},
		errors: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "error.log"),
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     90,
		},
	}
}

// TransferPath returns the transfer log path for report pointers
func (l *RunLog) TransferPath() string {
	return l.transfer.Filename
}

// Transfer appends a timestamped line to the transfer log
func (l *RunLog) Transfer(format string, args ...interface{}) {
	l.append(l.transfer, format, args...)
}

// Error appends a timestamped line to the error log
func (l *RunLog) Error(format string, args ...interface{}) {
	l.append(l.errors, format, args...)
}

// Attempt appends one attempt's full output to the transfer log, and
// mirrors failures into the error log
func (l *RunLog) Attempt(attempt *domain.TransferAttempt) {
	l.Transfer("attempt %d finished: exit_code=%d timed_out=%t duration=%s",
		attempt.Number, attempt.ExitCode, attempt.TimedOut, attempt.Duration)
	if attempt.Stdout != "" {
		l.Transfer("attempt %d STDOUT:\n%s", attempt.Number, attempt.Stdout)
	}
	if attempt.Stderr != "" {
		l.Transfer("attempt %d STDERR:\n%s", attempt.Number, attempt.Stderr)
	}
	if !attempt.Succeeded() {
		l.Error("attempt %d failed: exit_code=%d timed_out=%t stderr=%s",
			attempt.Number, attempt.ExitCode, attempt.TimedOut, attempt.Stderr)
	}
}

func (l *RunLog) append(w *lumberjack.Logger, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// Close closes both underlying log files
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	terr := l.transfer.Close()
	if eerr := l.errors.Close(); eerr != nil {
		return eerr
	}
	return terr
}
