package transfer

import (
	"fmt"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// SpaceGate decides go/no-go for a transfer based on free space at the
// destination. The measurement is fresh on every call.
type SpaceGate struct {
	fs port.FileSystem
}

// NewSpaceGate creates a new disk space gate
func NewSpaceGate(fs port.FileSystem) *SpaceGate {
	return &SpaceGate{fs: fs}
}

// Check queries the volume holding path and compares free space against
// the floor. An unreadable filesystem is an I/O failure, not an
// insufficient-space result.
func (g *SpaceGate) Check(path string, floorGB float64) (*domain.DiskSpaceInfo, error) {
	info, err := g.fs.GetDiskUsage(path)
	if err != nil {
		return nil, fmt.Errorf("disk space query failed: %w", err)
	}

	if info.FreeGB() < floorGB {
		return info, &domain.InsufficientSpaceError{
			Path:    path,
			FloorGB: floorGB,
			Info:    *info,
		}
	}
	return info, nil
}
