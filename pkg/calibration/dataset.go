package calibration

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RowPolicy decides what happens to a calibration dataset row containing a
// non-numeric cell.
type RowPolicy int

const (
	// SkipInvalidRows drops the row and counts it. This is the default.
	SkipInvalidRows RowPolicy = iota
	// FailOnInvalidRow aborts parsing at the first bad row.
	FailOnInvalidRow
)

// Column names recognized as the human-judgment label. The first header
// match wins.
var humanColumns = []string{"human_score", "human_accuracy", "human"}

// Literal column names treated as raw metric signals; any column prefixed
// "raw_" is also accepted, with the prefix stripped to form the metric name.
var rawMetricColumns = map[string]string{
	"comet_raw":   "comet",
	"berts":       "berts",
	"fluency_raw": "fluency",
	"tone_raw":    "tone",
}

// Dataset holds aligned labeled pairs for one or more metrics, parsed from
// a delimited calibration export. Rows dropped by the validation policy are
// counted in SkippedRows.
type Dataset struct {
	Human       []float64
	Metrics     map[string][]float64
	SkippedRows int
}

// MetricNames lists the calibratable metric columns found in the input.
func (d *Dataset) MetricNames() []string {
	names := make([]string, 0, len(d.Metrics))
	for name := range d.Metrics {
		names = append(names, name)
	}
	return names
}

// ParseDataset reads a comma-delimited calibration dataset. The header must
// contain a human-judgment column and at least one raw metric column; rows
// whose relevant cells fail to parse are handled per the policy rather than
// silently defaulting to zero.
func ParseDataset(r io.Reader, policy RowPolicy) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCalibration, err)
	}

	humanIdx := -1
	metricIdx := map[string]int{} // metric name -> column index
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if humanIdx < 0 && isHumanColumn(name) {
			humanIdx = i
			continue
		}
		if metric, ok := rawMetricColumns[name]; ok {
			metricIdx[metric] = i
		} else if rest, ok := strings.CutPrefix(name, "raw_"); ok && rest != "" {
			metricIdx[rest] = i
		}
	}
	if humanIdx < 0 {
		return nil, fmt.Errorf("%w: no human-judgment column (expected one of %v)",
			ErrCalibration, humanColumns)
	}
	if len(metricIdx) == 0 {
		return nil, fmt.Errorf("%w: no calibratable metric columns found", ErrCalibration)
	}

	ds := &Dataset{Metrics: map[string][]float64{}}
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			if policy == FailOnInvalidRow {
				return nil, fmt.Errorf("%w: row %d: %v", ErrCalibration, row, err)
			}
			ds.SkippedRows++
			continue
		}

		values, parseErr := parseRow(record, humanIdx, metricIdx)
		if parseErr != nil {
			if policy == FailOnInvalidRow {
				return nil, fmt.Errorf("%w: row %d: %v", ErrCalibration, row, parseErr)
			}
			ds.SkippedRows++
			continue
		}

		ds.Human = append(ds.Human, values.human)
		for metric, v := range values.metrics {
			ds.Metrics[metric] = append(ds.Metrics[metric], v)
		}
	}

	if len(ds.Human) == 0 {
		return nil, fmt.Errorf("%w: no usable data rows", ErrCalibration)
	}
	return ds, nil
}

func isHumanColumn(name string) bool {
	for _, h := range humanColumns {
		if name == h {
			return true
		}
	}
	return false
}

type rowValues struct {
	human   float64
	metrics map[string]float64
}

func parseRow(record []string, humanIdx int, metricIdx map[string]int) (*rowValues, error) {
	cell := func(i int) (float64, error) {
		if i >= len(record) {
			return 0, fmt.Errorf("missing column %d", i)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q in column %d", record[i], i)
		}
		return v, nil
	}

	human, err := cell(humanIdx)
	if err != nil {
		return nil, err
	}
	values := &rowValues{human: human, metrics: map[string]float64{}}
	for metric, idx := range metricIdx {
		v, err := cell(idx)
		if err != nil {
			return nil, err
		}
		values.metrics[metric] = v
	}
	return values, nil
}
