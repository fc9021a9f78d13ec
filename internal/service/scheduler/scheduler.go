package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Runner triggers one transfer run
type Runner interface {
	RunTransfer(ctx context.Context, direction domain.Direction) error
}

// Config contains scheduler configuration
type Config struct {
	// CheckInterval is how often the persisted schedule is re-read.
	// Edits to the schedule take effect within one check, no restart.
	CheckInterval time.Duration

	// PruneInterval is how often old run history is pruned
	PruneInterval time.Duration

	// RunRetention is the maximum age of kept run records
	RunRetention time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		CheckInterval: 30 * time.Second,
		PruneInterval: 24 * time.Hour,
		RunRetention:  90 * 24 * time.Hour,
	}
}

// Service drives recurring transfers off the persisted schedule. The
// schedule is consulted on every check, so enabling, disabling or
// changing the interval applies to the very next tick.
type Service struct {
	config   *Config
	schedule port.ScheduleStore
	runs     port.RunRepository
	runner   Runner
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lastRun time.Time
}

// New creates a new scheduler Service
func New(cfg *Config, schedule port.ScheduleStore, runs port.RunRepository, runner Runner, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = 24 * time.Hour
	}
	if cfg.RunRetention == 0 {
		cfg.RunRetention = 90 * 24 * time.Hour
	}

	return &Service{
		config:   cfg,
		schedule: schedule,
		runs:     runs,
		runner:   runner,
		logger:   logger,
	}
}

// Start starts the schedule loop and blocks until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.lastRun = time.Now()
	s.mu.Unlock()

	s.logger.Info("scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Duration("run_retention", s.config.RunRetention))

	s.wg.Add(1)
	go s.scheduleLoop(ctx)

	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
}

// scheduleLoop checks the schedule and prunes history periodically
func (s *Service) scheduleLoop(ctx context.Context) {
	defer s.wg.Done()

	checkTicker := time.NewTicker(s.config.CheckInterval)
	defer checkTicker.Stop()

	pruneTicker := time.NewTicker(s.config.PruneInterval)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-checkTicker.C:
			s.checkDue(ctx)
		case <-pruneTicker.C:
			s.pruneHistory()
		}
	}
}

// checkDue re-reads the schedule and triggers a run when the interval
// has elapsed since the last one
func (s *Service) checkDue(ctx context.Context) {
	sched, err := s.schedule.Current()
	if err != nil {
		s.logger.Error("failed to read schedule", zap.Error(err))
		return
	}
	if !sched.Enabled || sched.Interval <= 0 {
		return
	}

	s.mu.Lock()
	due := time.Since(s.lastRun) >= sched.Interval
	if due {
		s.lastRun = time.Now()
	}
	s.mu.Unlock()
	if !due {
		return
	}

	s.logger.Info("scheduled transfer due", zap.Duration("interval", sched.Interval))
	if err := s.runner.RunTransfer(ctx, domain.DirectionPull); err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			s.logger.Warn("scheduled transfer skipped, run already in progress")
			return
		}
		s.logger.Error("scheduled transfer failed", zap.Error(err))
	}
}

// pruneHistory removes run records past the retention window
func (s *Service) pruneHistory() {
	pruned, err := s.runs.PruneRuns(s.config.RunRetention)
	if err != nil {
		s.logger.Error("failed to prune run history", zap.Error(err))
	} else if pruned > 0 {
		s.logger.Info("pruned old run records", zap.Int64("count", pruned))
	}
}
