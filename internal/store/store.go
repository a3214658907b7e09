// Package store persists the lead collection, either as a workbook in an
// application data directory or as serialized JSON in an in-process
// key-value map.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nconklindev/leadbook/internal/types"
)

// Store loads and saves the whole lead collection.
type Store interface {
	// Load returns the stored leads, or an empty collection when nothing
	// has been saved yet.
	Load() ([]types.Lead, error)
	// Save replaces the stored collection.
	Save(leads []types.Lead) (*SaveResult, error)
	// Location describes where data is kept, for user messages.
	Location() string
}

// SkipReporter is implemented by stores whose Load can leave out rows
// that fail validation.
type SkipReporter interface {
	Skipped() []string
}

// SaveResult reports where a save landed.
type SaveResult struct {
	Path       string
	BackupPath string
}

// WriteArtifact writes art into dir under its own name and returns the
// full path. The file only appears once fully written.
func WriteArtifact(dir string, art *types.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, art.Name)
	if err := writeAtomic(path, art.Data); err != nil {
		return "", err
	}
	return path, nil
}

// writeAtomic writes data to a temp file beside path and renames it into
// place, so a failed write leaves any previous file untouched.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("writing %s: %w", path, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("syncing %s: %w", path, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
