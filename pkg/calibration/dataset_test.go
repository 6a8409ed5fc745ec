package calibration_test

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/tmgate/tmgate/pkg/calibration"
)

func TestParseDatasetLiteralColumns(t *testing.T) {
	input := `segment,comet_raw,berts,fluency_raw,tone_raw,human_score
s1,0.81,0.77,0.9,0.6,85
s2,0.55,0.60,0.7,0.5,60
s3,0.92,0.88,0.95,0.8,95
`
	ds, err := calibration.ParseDataset(strings.NewReader(input), calibration.SkipInvalidRows)
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}

	names := ds.MetricNames()
	sort.Strings(names)
	want := []string{"berts", "comet", "fluency", "tone"}
	if len(names) != len(want) {
		t.Fatalf("MetricNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("MetricNames = %v, want %v", names, want)
		}
	}

	if len(ds.Human) != 3 {
		t.Errorf("len(Human) = %d, want 3", len(ds.Human))
	}
	if ds.Human[0] != 85 || ds.Metrics["comet"][0] != 0.81 {
		t.Errorf("row 1 = human %v comet %v, want 85 / 0.81",
			ds.Human[0], ds.Metrics["comet"][0])
	}
	if ds.SkippedRows != 0 {
		t.Errorf("SkippedRows = %d, want 0", ds.SkippedRows)
	}
}

func TestParseDatasetRawPrefixAndAlias(t *testing.T) {
	input := `raw_accuracy,human_accuracy
0.5,50
0.9,90
`
	ds, err := calibration.ParseDataset(strings.NewReader(input), calibration.SkipInvalidRows)
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}
	if _, ok := ds.Metrics["accuracy"]; !ok {
		t.Fatalf("expected metric %q from raw_ prefix, got %v", "accuracy", ds.MetricNames())
	}
	if ds.Human[1] != 90 {
		t.Errorf("Human[1] = %v, want 90 (via human_accuracy alias)", ds.Human[1])
	}
}

func TestParseDatasetSkipPolicy(t *testing.T) {
	input := `raw_accuracy,human_score
0.5,50
oops,60
0.9,not-a-number
0.7,70
`
	ds, err := calibration.ParseDataset(strings.NewReader(input), calibration.SkipInvalidRows)
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}
	if len(ds.Human) != 2 {
		t.Errorf("len(Human) = %d, want 2", len(ds.Human))
	}
	if ds.SkippedRows != 2 {
		t.Errorf("SkippedRows = %d, want 2", ds.SkippedRows)
	}
	// Surviving columns stay aligned.
	if ds.Human[1] != 70 || ds.Metrics["accuracy"][1] != 0.7 {
		t.Errorf("row 2 = human %v accuracy %v, want 70 / 0.7",
			ds.Human[1], ds.Metrics["accuracy"][1])
	}
}

func TestParseDatasetFailPolicy(t *testing.T) {
	input := `raw_accuracy,human_score
0.5,50
oops,60
`
	_, err := calibration.ParseDataset(strings.NewReader(input), calibration.FailOnInvalidRow)
	if !errors.Is(err, calibration.ErrCalibration) {
		t.Errorf("expected ErrCalibration under FailOnInvalidRow, got %v", err)
	}
}

func TestParseDatasetMissingColumns(t *testing.T) {
	if _, err := calibration.ParseDataset(
		strings.NewReader("raw_accuracy\n0.5\n"), calibration.SkipInvalidRows,
	); !errors.Is(err, calibration.ErrCalibration) {
		t.Errorf("expected ErrCalibration for missing human column, got %v", err)
	}

	if _, err := calibration.ParseDataset(
		strings.NewReader("segment,human_score\ns1,50\n"), calibration.SkipInvalidRows,
	); !errors.Is(err, calibration.ErrCalibration) {
		t.Errorf("expected ErrCalibration for no metric columns, got %v", err)
	}
}
