package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Manager handles local filesystem queries around the destination root
type Manager struct {
	destDir string
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a new filesystem manager
func NewManager(destDir string) (*Manager, error) {
	// Ensure destination root exists
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination dir: %w", err)
	}

	return &Manager{destDir: destDir}, nil
}

// DestDir returns the destination root directory
func (m *Manager) DestDir() string {
	return m.destDir
}

// TreeStats walks a subdirectory of the destination and returns its
// file count and total size. Entries that disappear mid-walk are skipped.
func (m *Manager) TreeStats(relPath string) (*domain.TreeStats, error) {
	root := filepath.Join(m.destDir, relPath)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	stats := &domain.TreeStats{Path: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		stats.FileCount++
		stats.TotalBytes += fi.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return stats, nil
}
