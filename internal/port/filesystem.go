package port

import (
	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

// FileSystem defines the local filesystem operations the agent needs
type FileSystem interface {
	// DestDir returns the destination root directory
	DestDir() string

	// GetDiskUsage returns disk usage statistics for a path.
	// The result is always freshly computed.
	GetDiskUsage(path string) (*domain.DiskSpaceInfo, error)

	// TreeStats walks a subdirectory of the destination and returns
	// its file count and total size
	TreeStats(relPath string) (*domain.TreeStats, error)
}
