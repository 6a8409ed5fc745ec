package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Set is a calibration artifact: one fitted Mapping per metric name.
type Set map[string]*Mapping

// Apply calibrates a raw metric value. Metrics without a fitted mapping
// pass through unchanged.
func (s Set) Apply(metric string, raw float64) float64 {
	if m, ok := s[metric]; ok {
		return m.Apply(raw)
	}
	return raw
}

// Metrics lists the fitted metric names in sorted order.
func (s Set) Metrics() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every mapping in the set.
func (s Set) Validate() error {
	for _, name := range s.Metrics() {
		if err := s[name].Validate(); err != nil {
			return fmt.Errorf("metric %q: %w", name, err)
		}
	}
	return nil
}

// SaveSet writes a calibration artifact to disk as JSON.
func SaveSet(path string, set Set) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for calibration artifact: %w", err)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling calibration artifact: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing calibration artifact: %w", err)
	}

	return nil
}

// LoadSet reads and validates a calibration artifact from disk.
func LoadSet(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calibration artifact: %w", err)
	}
	return DecodeSet(data)
}

// DecodeSet parses and validates a serialized calibration artifact.
func DecodeSet(data []byte) (Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("unmarshaling calibration artifact: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
