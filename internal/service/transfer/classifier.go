package transfer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

// Classifier turns rsync's --itemize-changes/--stats output into a
// ChangeSummary. The parsing is deliberately forgiving: a malformed
// numeric field becomes zero, an unrecognized line is skipped, and the
// run never fails on classification.
type Classifier struct{}

// NewClassifier creates a new output classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Itemized change line: update class letter, file kind letter, the
// attribute-change field, then the path.
var itemLineRE = regexp.MustCompile(`^([<>ch.])([dfLDS])([+.cstpoguaxnb?]{7,9})\s+(.+)$`)

// Statistics block fields. The numeric captures keep locale punctuation
// which is stripped before conversion.
var (
	statSentRE    = regexp.MustCompile(`Total bytes sent:\s*([\d.,]+)`)
	statRecvRE    = regexp.MustCompile(`Total bytes received:\s*([\d.,]+)`)
	statTotalRE   = regexp.MustCompile(`total size is\s*([\d.,]+)`)
	statSpeedRE   = regexp.MustCompile(`([\d.,]+)\s*bytes/sec`)
	statCreatedRE = regexp.MustCompile(`Number of created files:\s*([\d.,]+)`)
	statDeletedRE = regexp.MustCompile(`Number of deleted files:\s*([\d.,]+)`)
)

// Classify parses the full stdout of a successful transfer attempt.
// The statistics block is authoritative for created/deleted file counts
// and overrides the itemized tallies when present.
func (c *Classifier) Classify(stdout string) *domain.ChangeSummary {
	summary := &domain.ChangeSummary{}

	newFolders := make(map[string]struct{})
	modifiedFolders := make(map[string]struct{})

	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		line = strings.TrimRight(line, "\r")

		// Deletion lines carry no attribute field
		if strings.HasPrefix(line, "*deleting") {
			summary.DeletedFiles++
			continue
		}

		if m := itemLineRE.FindStringSubmatch(line); m != nil {
			class, kind, attrs, path := m[1], m[2], m[3], strings.TrimSpace(m[4])
			created := class == "c" || strings.Contains(attrs, "+")

			if kind == "d" {
				rel := normalizeFolderPath(path)
				switch {
				case created:
					newFolders[rel] = struct{}{}
				case strings.ContainsAny(attrs, "ts"):
					modifiedFolders[rel] = struct{}{}
				}
			} else {
				switch {
				case created:
					summary.NewFiles++
				case strings.ContainsAny(attrs, "ts"):
					summary.ModifiedFiles++
				case class == "<" || class == ">":
					summary.NewFiles++
				}
			}
			continue
		}

		c.parseStatsLine(line, summary)
	}

	// A folder counted as new is never also counted modified
	for path := range newFolders {
		delete(modifiedFolders, path)
	}

	summary.NewFolderPaths = sortedPaths(newFolders)
	summary.ModifiedFolderPaths = sortedPaths(modifiedFolders)
	summary.NewFolders = len(summary.NewFolderPaths)
	summary.ModifiedFolders = len(summary.ModifiedFolderPaths)

	return summary
}

func (c *Classifier) parseStatsLine(line string, summary *domain.ChangeSummary) {
	switch {
	case strings.Contains(line, "Total bytes sent:"):
		if m := statSentRE.FindStringSubmatch(line); m != nil {
			summary.SentBytes = parseCount(m[1])
		}
	case strings.Contains(line, "Total bytes received:"):
		if m := statRecvRE.FindStringSubmatch(line); m != nil {
			summary.ReceivedBytes = parseCount(m[1])
		}
	case strings.Contains(line, "total size is") && strings.Contains(line, "speedup is"):
		if m := statTotalRE.FindStringSubmatch(line); m != nil {
			summary.TotalSourceSize = parseCount(m[1])
		}
	case strings.Contains(line, "bytes/sec"):
		if m := statSpeedRE.FindStringSubmatch(line); m != nil {
			summary.SpeedBPS = parseSpeed(m[1])
		}
	case strings.Contains(line, "Number of created files:"):
		if m := statCreatedRE.FindStringSubmatch(line); m != nil {
			summary.NewFiles = int(parseCount(m[1]))
		}
	case strings.Contains(line, "Number of deleted files:"):
		if m := statDeletedRE.FindStringSubmatch(line); m != nil {
			summary.DeletedFiles = int(parseCount(m[1]))
		}
	}
}

// parseCount converts a number that may carry thousands separators in
// either locale convention. Unparseable input yields zero.
func parseCount(s string) int64 {
	s = strings.NewReplacer(",", "", ".", "").Replace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseSpeed converts a bytes/sec value, stripping thousands commas but
// keeping the decimal point. Unparseable input yields zero.
func parseSpeed(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// normalizeFolderPath makes an itemized directory path relative to the
// destination root: trailing separator stripped, the root itself mapped
// to the empty string.
func normalizeFolderPath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "." {
		return ""
	}
	return path
}

func sortedPaths(set map[string]struct{}) []string {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
