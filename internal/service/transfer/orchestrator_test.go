package transfer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

type memNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (m *memNotifier) Notify(ctx context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return m.err
}

func (m *memNotifier) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

type memSourceStore struct {
	mu     sync.Mutex
	source string
	err    error
}

func (m *memSourceStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.source == "" {
		return "", domain.ErrNotFound
	}
	return m.source, nil
}

func (m *memSourceStore) Save(sourceSpec string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = sourceSpec
	return nil
}

type memRunRepo struct {
	mu      sync.Mutex
	records []*domain.RunRecord
}

func (m *memRunRepo) RecordRun(record *domain.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *memRunRepo) RecentRuns(limit int) ([]*domain.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]*domain.RunRecord(nil), m.records...)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memRunRepo) PruneRuns(olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (m *memRunRepo) last() *domain.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return nil
	}
	return m.records[len(m.records)-1]
}

func healthyFS() *fakeFS {
	return &fakeFS{
		destDir: "/data",
		usage: &domain.DiskSpaceInfo{
			TotalBytes: gb(100),
			UsedBytes:  gb(40),
			FreeBytes:  gb(60),
		},
	}
}

type orchestratorFixture struct {
	orch     *Orchestrator
	invoker  *scriptedInvoker
	notifier *memNotifier
	source   *memSourceStore
	runs     *memRunRepo
	fs       *fakeFS
}

func newFixture(t *testing.T, inv *scriptedInvoker) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		invoker:  inv,
		notifier: &memNotifier{},
		source:   &memSourceStore{source: "pi@host:/data"},
		runs:     &memRunRepo{},
		fs:       healthyFS(),
	}
	f.orch = New(
		&Config{
			DestDir:             "/data",
			DiskFloorGB:         10,
			Timeout:             time.Minute,
			Retry:               domain.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
			FolderListThreshold: 5,
		},
		Deps{
			Invoker:  f.invoker,
			Notifier: f.notifier,
			Source:   f.source,
			Runs:     f.runs,
			FS:       f.fs,
		},
		NewRunLog(t.TempDir()),
		zap.NewNop(),
	)
	return f
}

func TestRunTransfer_Success(t *testing.T) {
	stdout := strings.Join([]string{
		"cd+++++++++ photos/2026/",
		">f+++++++++ photos/2026/a.jpg",
		">f+++++++++ photos/2026/b.jpg",
	}, "\n")
	f := newFixture(t, &scriptedInvoker{results: []*domain.TransferAttempt{
		{ExitCode: 0, Stdout: stdout},
	}})

	if err := f.orch.RunTransfer(context.Background(), domain.DirectionPull); err != nil {
		t.Fatalf("RunTransfer() error = %v", err)
	}

	messages := f.notifier.all()
	if len(messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(messages))
	}
	if !strings.Contains(messages[0], "photos/2026") {
		t.Errorf("report does not list the new folder:\n%s", messages[0])
	}
	if !strings.Contains(messages[0], "Files: 2 new") {
		t.Errorf("report does not count new files:\n%s", messages[0])
	}

	rec := f.runs.last()
	if rec == nil {
		t.Fatal("no run recorded")
	}
	if rec.Outcome != domain.OutcomeSuccess {
		t.Errorf("Outcome = %s, want success", rec.Outcome)
	}
	if rec.NewFiles != 2 || rec.NewFolders != 1 {
		t.Errorf("counts = %d files / %d folders, want 2 / 1", rec.NewFiles, rec.NewFolders)
	}
}

func TestRunTransfer_InsufficientSpaceAborts(t *testing.T) {
	inv := &scriptedInvoker{results: []*domain.TransferAttempt{{ExitCode: 0}}}
	f := newFixture(t, inv)
	f.fs.usage = &domain.DiskSpaceInfo{
		TotalBytes: gb(100),
		UsedBytes:  gb(95),
		FreeBytes:  gb(5),
	}

	err := f.orch.RunTransfer(context.Background(), domain.DirectionPull)
	if !domain.IsInsufficientSpace(err) {
		t.Fatalf("RunTransfer() error = %v, want insufficient-space", err)
	}
	if inv.calls != 0 {
		t.Errorf("invoker called %d times, want 0", inv.calls)
	}

	messages := f.notifier.all()
	if len(messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(messages))
	}
	if !strings.Contains(messages[0], "low disk space") {
		t.Errorf("abort report missing disk space reason:\n%s", messages[0])
	}
	if rec := f.runs.last(); rec == nil || rec.Outcome != domain.OutcomeAborted {
		t.Errorf("run record = %+v, want aborted outcome", rec)
	}
}

func TestRunTransfer_FailureAfterRetries(t *testing.T) {
	f := newFixture(t, &scriptedInvoker{results: []*domain.TransferAttempt{
		{ExitCode: 12, Stderr: "connection unexpectedly closed"},
		{ExitCode: 12, Stderr: "connection unexpectedly closed"},
		{ExitCode: 12, Stderr: "connection unexpectedly closed"},
	}})

	err := f.orch.RunTransfer(context.Background(), domain.DirectionPull)
	if !domain.IsProcess(err) {
		t.Fatalf("RunTransfer() error = %v, want process error", err)
	}
	if f.invoker.calls != 3 {
		t.Errorf("invoker called %d times, want 3", f.invoker.calls)
	}

	messages := f.notifier.all()
	if len(messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(messages))
	}
	if !strings.Contains(messages[0], "connection unexpectedly closed") {
		t.Errorf("failure report missing stderr excerpt:\n%s", messages[0])
	}

	rec := f.runs.last()
	if rec == nil || rec.Outcome != domain.OutcomeFailed {
		t.Fatalf("run record = %+v, want failed outcome", rec)
	}
	if rec.Attempts != 3 || rec.ExitCode != 12 {
		t.Errorf("record attempts/exit = %d/%d, want 3/12", rec.Attempts, rec.ExitCode)
	}
}

func TestRunTransfer_SourceFallbackPersisted(t *testing.T) {
	f := newFixture(t, &scriptedInvoker{results: []*domain.TransferAttempt{
		{ExitCode: 0},
	}})
	f.source.source = ""
	f.orch.config.FallbackSourceSpec = "pi@fallback:/srv/data"

	if err := f.orch.RunTransfer(context.Background(), domain.DirectionPull); err != nil {
		t.Fatalf("RunTransfer() error = %v", err)
	}
	if got, _ := f.source.Load(); got != "pi@fallback:/srv/data" {
		t.Errorf("persisted source = %q, want fallback", got)
	}
}

func TestRunTransfer_NoSourceConfigured(t *testing.T) {
	inv := &scriptedInvoker{results: []*domain.TransferAttempt{{ExitCode: 0}}}
	f := newFixture(t, inv)
	f.source.source = ""

	err := f.orch.RunTransfer(context.Background(), domain.DirectionPull)
	if !domain.IsConfiguration(err) {
		t.Fatalf("RunTransfer() error = %v, want configuration error", err)
	}
	if inv.calls != 0 {
		t.Errorf("invoker called %d times, want 0", inv.calls)
	}
	if rec := f.runs.last(); rec == nil || rec.Outcome != domain.OutcomeAborted {
		t.Errorf("run record = %+v, want aborted outcome", rec)
	}
}

func TestRunTransfer_InvalidDirection(t *testing.T) {
	f := newFixture(t, &scriptedInvoker{results: []*domain.TransferAttempt{{ExitCode: 0}}})

	err := f.orch.RunTransfer(context.Background(), domain.Direction("push"))
	if !domain.IsConfiguration(err) {
		t.Fatalf("RunTransfer() error = %v, want configuration error", err)
	}
}

func TestRunTransfer_OverlapRefused(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	inv := &blockingInvoker{release: release, started: started}
	f := newFixture(t, &scriptedInvoker{})
	f.orch.deps.Invoker = inv

	done := make(chan error, 1)
	go func() {
		done <- f.orch.RunTransfer(context.Background(), domain.DirectionPull)
	}()
	<-started

	err := f.orch.RunTransfer(context.Background(), domain.DirectionPull)
	if !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("overlapping run error = %v, want ErrRunInProgress", err)
	}
	if rec := f.runs.last(); rec == nil || rec.Outcome != domain.OutcomeRefused {
		t.Errorf("run record = %+v, want refused outcome", rec)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run error = %v", err)
	}
}

// blockingInvoker holds its attempt open until released, to stage an
// overlapping trigger
type blockingInvoker struct {
	started chan struct{}
	release chan struct{}
	calls   int
}

func (b *blockingInvoker) Invoke(ctx context.Context, req domain.TransferRequest, attempt int, timeout time.Duration) (*domain.TransferAttempt, error) {
	b.calls++
	close(b.started)
	<-b.release
	return &domain.TransferAttempt{Number: attempt, ExitCode: 0}, nil
}

func TestRunTransfer_NotifierFailureDoesNotFailRun(t *testing.T) {
	f := newFixture(t, &scriptedInvoker{results: []*domain.TransferAttempt{
		{ExitCode: 0},
	}})
	f.notifier.err = errors.New("telegram: 502")

	if err := f.orch.RunTransfer(context.Background(), domain.DirectionPull); err != nil {
		t.Fatalf("RunTransfer() error = %v, want nil despite notifier failure", err)
	}
	if rec := f.runs.last(); rec == nil || rec.Outcome != domain.OutcomeSuccess {
		t.Errorf("run record = %+v, want success outcome", rec)
	}
}

func TestSetSourcePath(t *testing.T) {
	f := newFixture(t, &scriptedInvoker{})

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"pi@192.168.1.10:/srv/photos", false},
		{"user@host.example.com:backups/", false},
		{"no-at-sign:/path", true},
		{"user@host-without-path", true},
		{"", true},
	}

	for _, tt := range tests {
		err := f.orch.SetSourcePath(tt.spec)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidSourceSpec) {
				t.Errorf("SetSourcePath(%q) error = %v, want ErrInvalidSourceSpec", tt.spec, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetSourcePath(%q) error = %v", tt.spec, err)
			continue
		}
		if got, _ := f.source.Load(); got != tt.spec {
			t.Errorf("stored source = %q, want %q", got, tt.spec)
		}
	}
}
