package sourcefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Store persists the transfer source spec as a single line of UTF-8 text.
// Writes go through a temp file and rename so readers never observe a
// partial value.
type Store struct {
	path string
}

// Ensure Store implements port.SourceStore
var _ port.SourceStore = (*Store)(nil)

// NewStore creates a source store backed by the given file path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create source store dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Load returns the stored source spec, or domain.ErrNotFound if the
// file does not exist yet
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("failed to read source file: %w", err)
	}

	spec := strings.TrimSpace(string(data))
	if spec == "" {
		return "", domain.ErrNotFound
	}
	return spec, nil
}

// Save durably replaces the stored source spec
func (s *Store) Save(sourceSpec string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".source-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.WriteString(sourceSpec + "\n")
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("failed to write source file: %w", writeErr)
		}
		return fmt.Errorf("failed to close source file: %w", closeErr)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace source file: %w", err)
	}
	return nil
}
