package transfer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/domain/vo"
)

// Report excerpts of process output are capped to keep messages readable
const maxExcerptLen = 500

// ReportBuilder renders notifications for the three terminal outcomes.
// All builders are pure functions of their inputs so they can be tested
// without any I/O.
type ReportBuilder struct {
	folderListThreshold int
	logPath             string
}

// NewReportBuilder creates a report builder. logPath is only referenced
// in messages, never opened.
func NewReportBuilder(folderListThreshold int, logPath string) *ReportBuilder {
	return &ReportBuilder{
		folderListThreshold: folderListThreshold,
		logPath:             logPath,
	}
}

// Success renders the report for a completed transfer. tree may be nil
// when no destination subtree is configured for summarizing.
func (b *ReportBuilder) Success(req domain.TransferRequest, summary *domain.ChangeSummary, tree *domain.TreeStats) string {
	var sb strings.Builder

	if summary.AnyChanges() {
		sb.WriteString("✅📥 *Pull completed: changes detected and transferred*\n")
	} else {
		sb.WriteString("✅📥 *Pull completed: no changes detected*\n")
	}
	sb.WriteString(fmt.Sprintf("\n*Source:* `%s`\n*Destination:* `%s`\n", req.SourceSpec, req.DestinationPath))

	if total := summary.TotalAffectedFolders(); total > 0 {
		sb.WriteString("\n📂 *Affected folders:*\n")
		if total <= b.folderListThreshold {
			for _, folder := range summary.NewFolderPaths {
				sb.WriteString(fmt.Sprintf("├ New: `%s`\n", displayFolder(folder)))
			}
			for _, folder := range summary.ModifiedFolderPaths {
				sb.WriteString(fmt.Sprintf("├ Updated: `%s`\n", displayFolder(folder)))
			}
		} else {
			sb.WriteString(fmt.Sprintf("├ Total new: %d\n", summary.NewFolders))
			sb.WriteString(fmt.Sprintf("└ Total updated: %d\n", summary.ModifiedFolders))
			sb.WriteString(fmt.Sprintf("(Details in logs: `%s`)\n", b.logPath))
		}
	}

	sb.WriteString(fmt.Sprintf("\n📄 Files: %d new, %d updated, %d deleted\n",
		summary.NewFiles, summary.ModifiedFiles, summary.DeletedFiles))
	sb.WriteString(fmt.Sprintf("📦 Received: %s · Sent: %s · Source total: %s\n",
		vo.MustByteSize(summary.ReceivedBytes),
		vo.MustByteSize(summary.SentBytes),
		vo.MustByteSize(summary.TotalSourceSize)))
	if summary.SpeedBPS > 0 {
		sb.WriteString(fmt.Sprintf("🚀 Speed: %s/s\n", humanize.IBytes(uint64(summary.SpeedBPS))))
	}

	if tree != nil {
		sb.WriteString(fmt.Sprintf("\n📁 `%s` contains %d files\n📦 Total size: %s\n",
			tree.Path, tree.FileCount, vo.MustByteSize(tree.TotalBytes)))
	}

	return sb.String()
}

// Failure renders the report for an exhausted retry sequence. The last
// attempt carries the evidence: exit code or timeout, plus truncated
// output excerpts.
func (b *ReportBuilder) Failure(req domain.TransferRequest, last *domain.TransferAttempt, maxAttempts int, timeout time.Duration) string {
	var sb strings.Builder

	if last.TimedOut {
		sb.WriteString(fmt.Sprintf("❌🚨 *Pull timed out after %d attempts*\n", maxAttempts))
		sb.WriteString(fmt.Sprintf("\n*Source:* `%s`\n*Destination:* `%s`\n", req.SourceSpec, req.DestinationPath))
		sb.WriteString(fmt.Sprintf("\nTimeout: `%s` per attempt\n", timeout))
		sb.WriteString(fmt.Sprintf("Check logs for details: `%s`\n", b.logPath))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("❌🔥 *Pull failed after %d attempts*\n", maxAttempts))
	sb.WriteString(fmt.Sprintf("\n*Source:* `%s`\n*Destination:* `%s`\n", req.SourceSpec, req.DestinationPath))
	sb.WriteString(fmt.Sprintf("\nExit code: `%d`\n", last.ExitCode))
	sb.WriteString(fmt.Sprintf("STDOUT (partial): ```%s```\n", excerpt(last.Stdout)))
	sb.WriteString(fmt.Sprintf("STDERR (partial): ```%s```\n", excerpt(last.Stderr)))
	return sb.String()
}

// Aborted renders the report for a run that never reached the transfer
// tool: disk space or configuration problems, or a refused overlap.
func (b *ReportBuilder) Aborted(reason error) string {
	var spaceErr *domain.InsufficientSpaceError
	if errors.As(reason, &spaceErr) {
		return fmt.Sprintf(
			"⚠️ *Pull aborted: low disk space*\nOnly `%.2f GB` free of `%.2f GB` on `%s`.\nFloor: `%.0f GB`.",
			spaceErr.Info.FreeGB(), spaceErr.Info.TotalGB(), spaceErr.Path, spaceErr.FloorGB)
	}

	if errors.Is(reason, domain.ErrRunInProgress) {
		return "⏳ *Pull skipped: another run is still in progress.*"
	}

	var cfgErr *domain.ConfigurationError
	if errors.As(reason, &cfgErr) {
		return fmt.Sprintf("❌ *Pull aborted: %s*", cfgErr.Error())
	}

	return fmt.Sprintf("❌ *Pull aborted:* `%s`", reason)
}

// displayFolder maps a destination-relative folder path to its display
// name; the destination root itself shows as a phrase, not an empty string.
func displayFolder(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "root of destination"
	}
	return rel
}

// excerpt truncates process output for inclusion in a message
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "N/A"
	}
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen] + "..."
	}
	return s
}
