package surface

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tmgate/tmgate/pkg/batch"
	"github.com/tmgate/tmgate/pkg/progress"
	"github.com/tmgate/tmgate/pkg/scoring"
)

// TerminalRenderer renders a batch Summary as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func decisionColor(d scoring.Decision) string {
	if noColor() {
		return ""
	}
	switch d {
	case scoring.DecisionAcceptAuto:
		return colorGreen
	case scoring.DecisionAcceptWithReview:
		return colorYellow
	case scoring.DecisionNeedsHumanRevision:
		return colorRed
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, summary *batch.Summary) error {
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("TMGate: %d/%d units processed in %s (%.1f units/s)",
		summary.Processed, summary.Total, summary.Duration.Round(time.Millisecond), summary.Rate)))

	fmt.Fprintln(w, "Decisions:")
	for _, d := range []scoring.Decision{
		scoring.DecisionAcceptAuto,
		scoring.DecisionAcceptWithReview,
		scoring.DecisionNeedsHumanRevision,
	} {
		count := summary.Decisions[d]
		pct := 0.0
		if summary.Processed > 0 {
			pct = float64(count) / float64(summary.Processed) * 100
		}
		fmt.Fprintf(w, "  %s %-22s %5d  %s\n",
			colored("●", decisionColor(d)), d, count, dim(fmt.Sprintf("%.1f%%", pct)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Match types:")
	fmt.Fprintf(w, "  exact matches      %5d\n", summary.Statistics[progress.StatExactMatches])
	fmt.Fprintf(w, "  fuzzy repairs      %5d\n", summary.Statistics[progress.StatFuzzyRepairs])
	fmt.Fprintf(w, "  new translations   %5d\n", summary.Statistics[progress.StatNewTranslations])
	fmt.Fprintln(w)

	if errs := summary.Statistics[progress.StatErrors]; errs > 0 {
		fmt.Fprintf(w, "%s\n", colored(fmt.Sprintf("Errors: %d units failed", errs), colorRed))
	} else {
		fmt.Fprintln(w, "No errors.")
	}

	return nil
}
