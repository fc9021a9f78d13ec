package rsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Invoker runs rsync as a child process. The flags ask for an
// archive-preserving compressed copy over non-interactive ssh, with the
// itemized and statistics output the classifier depends on.
type Invoker struct {
	binary     string
	sshKeyPath string
	logger     *zap.Logger
}

// Ensure Invoker implements port.Invoker
var _ port.Invoker = (*Invoker)(nil)

// NewInvoker creates a new rsync invoker
func NewInvoker(sshKeyPath string, logger *zap.Logger) *Invoker {
	return &Invoker{
		binary:     "rsync",
		sshKeyPath: sshKeyPath,
		logger:     logger,
	}
}

// BuildCommand returns the argv for one transfer, first element included
func (i *Invoker) BuildCommand(req domain.TransferRequest) []string {
	transport := fmt.Sprintf("ssh -i %s -o StrictHostKeyChecking=no -o BatchMode=yes", i.sshKeyPath)
	return []string{
		i.binary,
		"-e", transport,
		"-avz",
		"--stats",
		"--itemize-changes",
		req.SourceSpec,
		req.DestinationPath,
	}
}

// Invoke executes one transfer attempt bounded by timeout. A timeout is a
// distinct outcome on the attempt, not an error: the process was started,
// it just ran too long. The returned error is reserved for failures to
// start the process at all.
func (i *Invoker) Invoke(ctx context.Context, req domain.TransferRequest, attempt int, timeout time.Duration) (*domain.TransferAttempt, error) {
	argv := i.BuildCommand(req)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)

	// Buffered capture keeps both pipes drained for the process lifetime,
	// including the kill-on-timeout path.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	i.logger.Info("invoking transfer process",
		zap.Int("attempt", attempt),
		zap.String("source", req.SourceSpec),
		zap.String("destination", req.DestinationPath),
		zap.Duration("timeout", timeout))

	started := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(started)

	result := &domain.TransferAttempt{
		Number:    attempt,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		StartedAt: started,
		Duration:  elapsed,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		i.logger.Warn("transfer process timed out",
			zap.Int("attempt", attempt),
			zap.Duration("timeout", timeout))
		return result, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// rsync never ran; missing binary, bad working dir and the like
		return nil, fmt.Errorf("failed to start transfer process: %w", runErr)
	}

	result.ExitCode = 0
	return result, nil
}
