package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// RetryController drives repeated transfer attempts. Attempt k sleeps
// BaseDelay * 2^(k-1) before attempt k+1; there is no sleep after the
// final attempt. The sleep is the only suspension point and honors
// context cancellation.
type RetryController struct {
	logger *zap.Logger
}

// NewRetryController creates a new retry controller
func NewRetryController(logger *zap.Logger) *RetryController {
	return &RetryController{logger: logger}
}

// Run invokes the transfer up to policy.MaxAttempts times and returns
// the attempt that decided the outcome: the first success, or the last
// failure once attempts are exhausted.
func (r *RetryController) Run(ctx context.Context, req domain.TransferRequest, policy domain.RetryPolicy, invoker port.Invoker, timeout time.Duration) (*domain.TransferAttempt, error) {
	if policy.MaxAttempts < 1 {
		return nil, domain.NewConfigurationError("retry.max_attempts", "must be at least 1")
	}

	delays := backoff.NewExponentialBackOff()
	delays.InitialInterval = policy.BaseDelay
	delays.Multiplier = 2
	delays.RandomizationFactor = 0
	delays.MaxInterval = 24 * time.Hour
	delays.MaxElapsedTime = 0
	delays.Reset()

	var last *domain.TransferAttempt
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := invoker.Invoke(ctx, req, attempt, timeout)
		if err != nil {
			// The process never started; retrying cannot help
			return nil, err
		}
		last = result

		if result.Succeeded() {
			r.logger.Info("transfer attempt succeeded",
				zap.Int("attempt", attempt),
				zap.Duration("duration", result.Duration))
			return result, nil
		}

		r.logger.Warn("transfer attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Int("exit_code", result.ExitCode),
			zap.Bool("timed_out", result.TimedOut))

		if attempt == policy.MaxAttempts {
			break
		}

		delay := delays.NextBackOff()
		r.logger.Info("retrying after backoff", zap.Duration("delay", delay))
		if err := sleepCtx(ctx, delay); err != nil {
			return last, fmt.Errorf("retry wait interrupted: %w", err)
		}
	}

	if last.TimedOut {
		return last, &domain.TimeoutError{Timeout: timeout}
	}
	return last, &domain.ProcessError{ExitCode: last.ExitCode, Stderr: last.Stderr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
