package surface_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tmgate/tmgate/pkg/batch"
	"github.com/tmgate/tmgate/pkg/progress"
	"github.com/tmgate/tmgate/pkg/scoring"
	"github.com/tmgate/tmgate/pkg/surface"
)

func sampleSummary() *batch.Summary {
	return &batch.Summary{
		Total:     100,
		Processed: 100,
		Statistics: map[string]int64{
			progress.StatExactMatches:    20,
			progress.StatFuzzyRepairs:    30,
			progress.StatNewTranslations: 47,
			progress.StatErrors:          3,
		},
		Decisions: map[scoring.Decision]int{
			scoring.DecisionAcceptAuto:         60,
			scoring.DecisionAcceptWithReview:   25,
			scoring.DecisionNeedsHumanRevision: 12,
		},
		Duration: 4 * time.Second,
		Rate:     25.0,
	}
}

func TestTerminalRender(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	r := &surface.TerminalRenderer{}
	if err := r.Render(&buf, sampleSummary()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"100/100 units processed",
		"accept_auto",
		"needs_human_revision",
		"fuzzy repairs",
		"Errors: 3 units failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("output contains ANSI escapes despite NO_COLOR")
	}
}

func TestTerminalRenderNoErrors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	s := sampleSummary()
	s.Statistics[progress.StatErrors] = 0

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, s); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "No errors.") {
		t.Errorf("output missing no-errors line:\n%s", buf.String())
	}
}

func TestJSONRender(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).Render(&buf, sampleSummary()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["processed"] != float64(100) {
		t.Errorf("processed = %v, want 100", decoded["processed"])
	}
}
