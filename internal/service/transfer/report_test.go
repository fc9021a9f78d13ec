package transfer

import (
	"strings"
	"testing"
	"time"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

func reportRequest() domain.TransferRequest {
	return domain.TransferRequest{
		Direction:       domain.DirectionPull,
		SourceSpec:      "pi@192.168.1.10:/media/pi/usb",
		DestinationPath: "/data",
	}
}

func TestSuccess_ListsFoldersBelowThreshold(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	summary := &domain.ChangeSummary{
		NewFiles:            2,
		NewFolders:          2,
		ModifiedFolders:     1,
		ReceivedBytes:       4096,
		NewFolderPaths:      []string{"media", "media/photos"},
		ModifiedFolderPaths: []string{"archive"},
	}

	report := b.Success(reportRequest(), summary, nil)

	if !strings.Contains(report, "changes detected") {
		t.Error("report should state that changes were detected")
	}
	for _, want := range []string{"New: `media`", "New: `media/photos`", "Updated: `archive`"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "Total new:") {
		t.Error("report should not collapse to counts below the threshold")
	}
	if !strings.Contains(report, "pi@192.168.1.10:/media/pi/usb") {
		t.Error("report should name the source")
	}
}

func TestSuccess_CollapsesFoldersAboveThreshold(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	paths := make([]string, 12)
	for i := range paths {
		paths[i] = strings.Repeat("x", i+1)
	}
	summary := &domain.ChangeSummary{
		NewFolders:     12,
		NewFolderPaths: paths,
		ReceivedBytes:  1,
	}

	report := b.Success(reportRequest(), summary, nil)

	if strings.Contains(report, "New: `") {
		t.Error("report should not list folders above the threshold")
	}
	if !strings.Contains(report, "Total new: 12") {
		t.Errorf("report missing collapsed count:\n%s", report)
	}
	if !strings.Contains(report, "/logs/transfer.log") {
		t.Error("collapsed report should point at the full log")
	}
}

func TestSuccess_RootFolderDisplay(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	summary := &domain.ChangeSummary{
		NewFolders:     1,
		NewFolderPaths: []string{""},
		ReceivedBytes:  1,
	}

	report := b.Success(reportRequest(), summary, nil)
	if !strings.Contains(report, "root of destination") {
		t.Errorf("empty folder path should display as root of destination:\n%s", report)
	}
}

func TestSuccess_NoChanges(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	report := b.Success(reportRequest(), &domain.ChangeSummary{}, nil)
	if !strings.Contains(report, "no changes detected") {
		t.Errorf("report should state that nothing changed:\n%s", report)
	}
	if strings.Contains(report, "Affected folders") {
		t.Error("report should omit the folder section when nothing changed")
	}
}

func TestSuccess_IncludesTreeStats(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	tree := &domain.TreeStats{Path: "/data/media", FileCount: 42, TotalBytes: 10 << 20}
	report := b.Success(reportRequest(), &domain.ChangeSummary{ReceivedBytes: 5}, tree)

	if !strings.Contains(report, "contains 42 files") {
		t.Errorf("report missing tree stats:\n%s", report)
	}
}

func TestFailure_ExitCode(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	last := &domain.TransferAttempt{
		Number:   3,
		ExitCode: 23,
		Stdout:   strings.Repeat("o", 600),
		Stderr:   "rsync: permission denied",
	}

	report := b.Failure(reportRequest(), last, 3, 300*time.Second)

	if !strings.Contains(report, "failed after 3 attempts") {
		t.Errorf("report missing attempt count:\n%s", report)
	}
	if !strings.Contains(report, "Exit code: `23`") {
		t.Errorf("report missing exit code:\n%s", report)
	}
	if !strings.Contains(report, "permission denied") {
		t.Error("report should include stderr excerpt")
	}
	// stdout is truncated to 500 chars plus ellipsis
	if strings.Contains(report, strings.Repeat("o", 501)) {
		t.Error("stdout excerpt should be truncated")
	}
	if !strings.Contains(report, strings.Repeat("o", 500)+"...") {
		t.Error("truncated excerpt should end with ellipsis")
	}
}

func TestFailure_Timeout(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	last := &domain.TransferAttempt{Number: 3, TimedOut: true, ExitCode: -1}
	report := b.Failure(reportRequest(), last, 3, 300*time.Second)

	if !strings.Contains(report, "timed out") {
		t.Errorf("timeout report should be distinct:\n%s", report)
	}
	if !strings.Contains(report, "5m0s") {
		t.Errorf("timeout report should name the bound:\n%s", report)
	}
	if strings.Contains(report, "Exit code") {
		t.Error("timeout report should not carry an exit code")
	}
}

func TestFailure_EmptyStreams(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	last := &domain.TransferAttempt{Number: 1, ExitCode: 1}
	report := b.Failure(reportRequest(), last, 1, time.Minute)

	if !strings.Contains(report, "N/A") {
		t.Errorf("empty streams should show as N/A:\n%s", report)
	}
}

func TestAborted(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	tests := []struct {
		name   string
		reason error
		want   string
	}{
		{
			name: "insufficient space",
			reason: &domain.InsufficientSpaceError{
				Path:    "/data",
				FloorGB: 10,
				Info: domain.DiskSpaceInfo{
					TotalBytes: 100 << 30,
					UsedBytes:  95 << 30,
					FreeBytes:  5 << 30,
				},
			},
			want: "low disk space",
		},
		{
			name:   "configuration",
			reason: domain.NewConfigurationError("direction", "unsupported direction \"push\""),
			want:   "configuration error",
		},
		{
			name:   "overlapping run",
			reason: domain.ErrRunInProgress,
			want:   "another run is still in progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := b.Aborted(tt.reason)
			if !strings.Contains(report, tt.want) {
				t.Errorf("Aborted() = %q, want substring %q", report, tt.want)
			}
		})
	}
}

func TestAborted_SpaceNumbers(t *testing.T) {
	b := NewReportBuilder(5, "/logs/transfer.log")

	report := b.Aborted(&domain.InsufficientSpaceError{
		Path:    "/data",
		FloorGB: 10,
		Info: domain.DiskSpaceInfo{
			TotalBytes: 100 << 30,
			UsedBytes:  95 << 30,
			FreeBytes:  5 << 30,
		},
	})

	if !strings.Contains(report, "5.00 GB") {
		t.Errorf("report missing measured free space:\n%s", report)
	}
	if !strings.Contains(report, "100.00 GB") {
		t.Errorf("report missing measured total space:\n%s", report)
	}
	if !strings.Contains(report, "Floor: `10 GB`") {
		t.Errorf("report missing the configured floor:\n%s", report)
	}
}
