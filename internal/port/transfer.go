package port

import (
	"context"
	"time"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

// Invoker executes one transfer attempt as an external process.
// The returned attempt carries the full captured output; a non-nil error
// means the process could not be started at all.
type Invoker interface {
	Invoke(ctx context.Context, req domain.TransferRequest, attempt int, timeout time.Duration) (*domain.TransferAttempt, error)
}

// Notifier delivers a message to the operator channel. Delivery is
// best-effort: callers log failures and never escalate them.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// SourceStore persists the remote source spec across process restarts
type SourceStore interface {
	// Load returns the stored source spec, or domain.ErrNotFound
	// if nothing has been stored yet
	Load() (string, error)

	// Save durably replaces the stored source spec
	Save(sourceSpec string) error
}
