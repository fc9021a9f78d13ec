package transfer

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Config contains orchestrator configuration
type Config struct {
	// FallbackSourceSpec is used when no durably stored source exists.
	// Having neither is a fatal configuration error.
	FallbackSourceSpec string
	DestDir            string
	// ReportDir, when set, names the destination subdirectory whose
	// file count and size are embedded in success reports
	ReportDir           string
	DiskFloorGB         float64
	Timeout             time.Duration
	Retry               domain.RetryPolicy
	FolderListThreshold int
}

// Deps are the orchestrator's collaborators, injected at construction
type Deps struct {
	Invoker  port.Invoker
	Notifier port.Notifier
	Source   port.SourceStore
	Runs     port.RunRepository
	FS       port.FileSystem
}

// Orchestrator composes the disk gate, retry controller, classifier and
// report builder into a single transfer operation. One orchestrator
// serializes its own runs; an overlapping trigger is refused, not queued.
type Orchestrator struct {
	config     *Config
	deps       Deps
	gate       *SpaceGate
	retry      *RetryController
	classifier *Classifier
	reports    *ReportBuilder
	runLog     *RunLog
	logger     *zap.Logger

	runMu sync.Mutex
}

var sourceSpecRE = regexp.MustCompile(`^.+@.+:.+$`)

// New creates a new transfer orchestrator
func New(cfg *Config, deps Deps, runLog *RunLog, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		config:     cfg,
		deps:       deps,
		gate:       NewSpaceGate(deps.FS),
		retry:      NewRetryController(logger),
		classifier: NewClassifier(),
		reports:    NewReportBuilder(cfg.FolderListThreshold, runLog.TransferPath()),
		runLog:     runLog,
		logger:     logger,
	}
}

// RunTransfer executes one full transfer run: precondition checks,
// retried invocation, classification and exactly one notification per
// terminal outcome. The returned error describes why a run did not
// succeed; it has already been reported.
func (o *Orchestrator) RunTransfer(ctx context.Context, direction domain.Direction) error {
	if !o.runMu.TryLock() {
		o.logger.Warn("transfer run refused, another run in progress")
		o.notify(ctx, o.reports.Aborted(domain.ErrRunInProgress))
		o.record(&domain.RunRecord{
			Direction: direction,
			StartedAt: time.Now(),
			Outcome:   domain.OutcomeRefused,
			Message:   domain.ErrRunInProgress.Error(),
		})
		return domain.ErrRunInProgress
	}
	defer o.runMu.Unlock()

	started := time.Now()

	if !direction.IsValid() {
		err := domain.NewConfigurationError("direction", "unsupported direction "+string(direction))
		return o.abort(ctx, started, string(direction), "", err)
	}

	// Read the source once; the whole run uses this value even if a
	// concurrent SetSourcePath lands mid-run.
	source, err := o.resolveSource()
	if err != nil {
		return o.abort(ctx, started, string(direction), source, err)
	}

	req := domain.TransferRequest{
		Direction:       direction,
		SourceSpec:      source,
		DestinationPath: o.config.DestDir,
	}

	o.runLog.Transfer("starting pull from %s to %s", req.SourceSpec, req.DestinationPath)

	space, err := o.gate.Check(req.DestinationPath, o.config.DiskFloorGB)
	if err != nil {
		return o.abort(ctx, started, string(direction), source, err)
	}
	o.runLog.Transfer("disk space on %s: %.2f GB free of %.2f GB",
		req.DestinationPath, space.FreeGB(), space.TotalGB())

	attempt, err := o.retry.Run(ctx, req, o.config.Retry, &loggingInvoker{inner: o.deps.Invoker, runLog: o.runLog}, o.config.Timeout)
	if err != nil {
		if attempt == nil {
			// the process never started
			return o.abort(ctx, started, string(direction), source, err)
		}
		report := o.reports.Failure(req, attempt, o.config.Retry.MaxAttempts, o.config.Timeout)
		o.notify(ctx, report)
		o.record(&domain.RunRecord{
			Direction:  direction,
			SourceSpec: source,
			StartedAt:  started,
			Duration:   time.Since(started),
			Outcome:    domain.OutcomeFailed,
			Attempts:   attempt.Number,
			ExitCode:   attempt.ExitCode,
			TimedOut:   attempt.TimedOut,
			Message:    err.Error(),
		})
		return err
	}

	summary := o.classifier.Classify(attempt.Stdout)

	var tree *domain.TreeStats
	if o.config.ReportDir != "" {
		tree, err = o.deps.FS.TreeStats(o.config.ReportDir)
		if err != nil {
			// reports survive without the subtree section
			o.logger.Warn("failed to collect destination tree stats", zap.Error(err))
			tree = nil
		}
	}

	report := o.reports.Success(req, summary, tree)
	o.notify(ctx, report)
	o.record(&domain.RunRecord{
		Direction:     direction,
		SourceSpec:    source,
		StartedAt:     started,
		Duration:      time.Since(started),
		Outcome:       domain.OutcomeSuccess,
		Attempts:      attempt.Number,
		NewFiles:      summary.NewFiles,
		ModifiedFiles: summary.ModifiedFiles,
		DeletedFiles:  summary.DeletedFiles,
		NewFolders:    summary.NewFolders,
		ReceivedBytes: summary.ReceivedBytes,
	})

	o.logger.Info("transfer run completed",
		zap.Int("attempts", attempt.Number),
		zap.Int("new_files", summary.NewFiles),
		zap.Int("new_folders", summary.NewFolders),
		zap.Int64("received_bytes", summary.ReceivedBytes))
	return nil
}

// SetSourcePath validates and durably persists a new source spec.
// Runs already in flight keep the value they read at start.
func (o *Orchestrator) SetSourcePath(spec string) error {
	if !sourceSpecRE.MatchString(spec) {
		return domain.ErrInvalidSourceSpec
	}
	if err := o.deps.Source.Save(spec); err != nil {
		return err
	}
	o.logger.Info("transfer source updated", zap.String("source", spec))
	return nil
}

// CurrentSource returns the source spec the next run would use
func (o *Orchestrator) CurrentSource() (string, error) {
	return o.resolveSource()
}

func (o *Orchestrator) resolveSource() (string, error) {
	source, err := o.deps.Source.Load()
	if err == nil {
		return source, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	if o.config.FallbackSourceSpec == "" {
		return "", domain.NewConfigurationError("transfer.source_spec", domain.ErrSourceNotConfigured.Error())
	}

	// Persist the startup value so later runs survive a config change
	if err := o.deps.Source.Save(o.config.FallbackSourceSpec); err != nil {
		o.logger.Warn("failed to persist fallback source", zap.Error(err))
	}
	return o.config.FallbackSourceSpec, nil
}

// abort handles every terminal outcome that never produced a transfer
// attempt: one notification, one error-log line, one history row.
func (o *Orchestrator) abort(ctx context.Context, started time.Time, direction, source string, reason error) error {
	o.logger.Error("transfer run aborted", zap.Error(reason))
	o.runLog.Error("run aborted: %v", reason)
	o.notify(ctx, o.reports.Aborted(reason))
	o.record(&domain.RunRecord{
		Direction:  domain.Direction(direction),
		SourceSpec: source,
		StartedAt:  started,
		Duration:   time.Since(started),
		Outcome:    domain.OutcomeAborted,
		Message:    reason.Error(),
	})
	return reason
}

// notify delivers a report best-effort; failures are logged, never
// escalated to the caller
func (o *Orchestrator) notify(ctx context.Context, message string) {
	if err := o.deps.Notifier.Notify(ctx, message); err != nil {
		o.logger.Warn("failed to send notification", zap.Error(err))
	}
}

func (o *Orchestrator) record(record *domain.RunRecord) {
	if err := o.deps.Runs.RecordRun(record); err != nil {
		o.logger.Warn("failed to record run history", zap.Error(err))
	}
}

// loggingInvoker appends every attempt's full output to the run log
// before the controller inspects it
type loggingInvoker struct {
	inner  port.Invoker
	runLog *RunLog
}

func (l *loggingInvoker) Invoke(ctx context.Context, req domain.TransferRequest, attempt int, timeout time.Duration) (*domain.TransferAttempt, error) {
	result, err := l.inner.Invoke(ctx, req, attempt, timeout)
	if err != nil {
		l.runLog.Error("attempt %d could not start: %v", attempt, err)
		return nil, err
	}
	l.runLog.Attempt(result)
	return result, nil
}
