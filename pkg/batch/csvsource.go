package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tmgate/tmgate/pkg/scoring"
)

// CSVSource reads units from a delimited export with a header row. The
// required columns are unit_id, accuracy, fluency, tone and term_match;
// hallucination, term_violations and match_type are optional. Rows that
// fail to parse are returned as unit errors so the driver can count them
// without stopping the batch.
type CSVSource struct {
	r      *csv.Reader
	fields map[string]int
	rows   int
}

// NewCSVSource reads and validates the header.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading batch header: %w", err)
	}
	fields := map[string]int{}
	for i, col := range header {
		fields[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"unit_id", "accuracy", "fluency", "tone", "term_match"} {
		if _, ok := fields[required]; !ok {
			return nil, fmt.Errorf("batch input missing column %q", required)
		}
	}
	return &CSVSource{r: cr, fields: fields}, nil
}

// Rows returns how many data rows have been read so far.
func (s *CSVSource) Rows() int { return s.rows }

// Next returns the next unit, io.EOF at end of input, or a row error.
func (s *CSVSource) Next(ctx context.Context) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, err := s.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	s.rows++
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", s.rows, err)
	}

	unit := &Unit{MatchType: scoring.MatchTypeNew}
	unit.ID = record[s.fields["unit_id"]]
	if unit.ID == "" {
		unit.ID = fmt.Sprintf("row-%d", s.rows)
	}

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"accuracy", &unit.Metrics.Accuracy},
		{"fluency", &unit.Metrics.Fluency},
		{"tone", &unit.Metrics.Tone},
		{"term_match", &unit.Metrics.TermMatch},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[s.fields[f.name]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: column %q: %w", s.rows, f.name, err)
		}
		*f.dst = v
	}

	if i, ok := s.fields["hallucination"]; ok {
		unit.Metrics.Hallucination = parseBool(record[i])
	}
	if i, ok := s.fields["term_violations"]; ok {
		unit.Metrics.TermViolations = parseBool(record[i])
	}
	if i, ok := s.fields["match_type"]; ok {
		if mt := strings.TrimSpace(record[i]); mt != "" {
			unit.MatchType = scoring.MatchType(mt)
		}
	}
	return unit, nil
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}
