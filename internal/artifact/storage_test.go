package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tmgate/tmgate/pkg/config"
)

func TestLocalStoragePutGetCalibration(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"accuracy":{"x":[0.2,0.8],"y":[40,90]}}`)
	if err := s.PutCalibration(ctx, "proj1", "default", data); err != nil {
		t.Fatalf("PutCalibration: %v", err)
	}

	got, err := s.GetCalibration(ctx, "proj1", "default")
	if err != nil {
		t.Fatalf("GetCalibration: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetCalibration = %q, want %q", got, data)
	}

	// Verify file path layout
	expectedPath := filepath.Join(dir, "proj1", "calibrations", "default.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStoragePutGetReport(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"processed":10}`)
	if err := s.PutReport(ctx, "proj1", "run1", data); err != nil {
		t.Fatalf("PutReport: %v", err)
	}

	got, err := s.GetReport(ctx, "proj1", "run1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetReport = %q, want %q", got, data)
	}

	expectedPath := filepath.Join(dir, "proj1", "reports", "run1.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStorageGetNotFound(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	if _, err := s.GetCalibration(context.Background(), "proj1", "missing"); err == nil {
		t.Error("expected error for missing calibration")
	}
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	s, err := FromConfig(ctx, config.StorageConfig{Backend: "local", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("FromConfig(local): %v", err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Errorf("FromConfig(local) = %T, want *LocalStorage", s)
	}

	if _, err := FromConfig(ctx, config.StorageConfig{Backend: "tape"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
