// Package artifact provides blob storage for TMGate's durable artifacts:
// fitted calibration mappings and batch-run reports, keyed by project.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StorageClient abstracts blob storage for calibration artifacts and reports.
type StorageClient interface {
	PutCalibration(ctx context.Context, projectID, name string, data []byte) error
	GetCalibration(ctx context.Context, projectID, name string) ([]byte, error)
	PutReport(ctx context.Context, projectID, runID string, data []byte) error
	GetReport(ctx context.Context, projectID, runID string) ([]byte, error)
}

// LocalStorage implements StorageClient using the local filesystem.
// Useful for development and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(projectID, kind, id string) string {
	return filepath.Join(s.BaseDir, projectID, kind, id+".json")
}

func (s *LocalStorage) put(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// PutCalibration stores a calibration artifact.
func (s *LocalStorage) PutCalibration(ctx context.Context, projectID, name string, data []byte) error {
	return s.put(s.path(projectID, "calibrations", name), data)
}

// GetCalibration retrieves a calibration artifact.
func (s *LocalStorage) GetCalibration(ctx context.Context, projectID, name string) ([]byte, error) {
	return os.ReadFile(s.path(projectID, "calibrations", name))
}

// PutReport stores a batch report blob.
func (s *LocalStorage) PutReport(ctx context.Context, projectID, runID string, data []byte) error {
	return s.put(s.path(projectID, "reports", runID), data)
}

// GetReport retrieves a batch report blob.
func (s *LocalStorage) GetReport(ctx context.Context, projectID, runID string) ([]byte, error) {
	return os.ReadFile(s.path(projectID, "reports", runID))
}
