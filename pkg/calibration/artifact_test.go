package calibration_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tmgate/tmgate/pkg/calibration"
)

func TestSaveLoadSetRoundTrip(t *testing.T) {
	set := calibration.Set{
		"accuracy": {X: []float64{0.2, 0.8}, Y: []float64{40, 90}},
		"fluency":  {X: []float64{0.1, 0.5, 0.9}, Y: []float64{30, 60, 95}},
	}

	path := filepath.Join(t.TempDir(), "artifacts", "calibration.json")
	if err := calibration.SaveSet(path, set); err != nil {
		t.Fatalf("SaveSet: %v", err)
	}

	loaded, err := calibration.LoadSet(path)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if got := loaded.Apply("accuracy", 0.8); got != 90 {
		t.Errorf("Apply(accuracy, 0.8) = %v, want 90", got)
	}
	if got := loaded.Apply("fluency", 0.5); got != 60 {
		t.Errorf("Apply(fluency, 0.5) = %v, want 60", got)
	}
}

func TestSetApplyPassthroughWithoutMapping(t *testing.T) {
	set := calibration.Set{}
	if got := set.Apply("accuracy", 73.5); got != 73.5 {
		t.Errorf("Apply without mapping = %v, want passthrough 73.5", got)
	}
}

func TestDecodeSetRejectsInvalidMapping(t *testing.T) {
	// y decreases: not a valid monotonic mapping.
	data := []byte(`{"accuracy":{"x":[1,2],"y":[90,40]}}`)
	if _, err := calibration.DecodeSet(data); !errors.Is(err, calibration.ErrCalibration) {
		t.Errorf("expected ErrCalibration, got %v", err)
	}

	data = []byte(`{"accuracy":{"x":[2,1],"y":[40,90]}}`)
	if _, err := calibration.DecodeSet(data); !errors.Is(err, calibration.ErrCalibration) {
		t.Errorf("expected ErrCalibration for descending x, got %v", err)
	}
}

func TestLoadSetMissingFile(t *testing.T) {
	if _, err := calibration.LoadSet(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing artifact")
	}
}
