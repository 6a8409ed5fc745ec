package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tmgate/tmgate/pkg/calibration"
	"github.com/tmgate/tmgate/pkg/scoring"
)

func newScoreCmd() *cobra.Command {
	var (
		accuracy       float64
		fluency        float64
		tone           float64
		termMatch      float64
		hallucination  bool
		termViolations bool
		matchType      string
		calibPath      string
		configPath     string
		outputFmt      string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single translation unit",
		Long: `Aggregates metric scores into a weighted score, applies penalty flags,
and prints the routing decision with the TMS match-rate equivalent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleScore(singleScoreOpts{
				metrics: scoring.MetricScores{
					Accuracy:       accuracy,
					Fluency:        fluency,
					Tone:           tone,
					TermMatch:      termMatch,
					Hallucination:  hallucination,
					TermViolations: termViolations,
				},
				matchType:  scoring.MatchType(matchType),
				calibPath:  calibPath,
				configPath: configPath,
				outputFmt:  outputFmt,
			})
		},
	}

	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "Accuracy score, 0-100 (required)")
	cmd.Flags().Float64Var(&fluency, "fluency", 0, "Fluency score, 0-100 (required)")
	cmd.Flags().Float64Var(&tone, "tone", 0, "Tone score, 0-100 (required)")
	cmd.Flags().Float64Var(&termMatch, "term-match", 100, "Terminology match score, 0-100")
	cmd.Flags().BoolVar(&hallucination, "hallucination", false, "Hallucination detected")
	cmd.Flags().BoolVar(&termViolations, "term-violations", false, "Terminology violations detected")
	cmd.Flags().StringVar(&matchType, "match-type", "new", "TM match type: exact, fuzzy_repair or new")
	cmd.Flags().StringVar(&calibPath, "calibration", "", "Calibration artifact; metric flags are then raw signals")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: discover .tmgate/config.yaml)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("accuracy")
	_ = cmd.MarkFlagRequired("fluency")
	_ = cmd.MarkFlagRequired("tone")

	return cmd
}

type singleScoreOpts struct {
	metrics    scoring.MetricScores
	matchType  scoring.MatchType
	calibPath  string
	configPath string
	outputFmt  string
}

func runSingleScore(opts singleScoreOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	agg, err := cfg.Aggregator()
	if err != nil {
		return err
	}

	m := opts.metrics
	if opts.calibPath != "" {
		set, err := calibration.LoadSet(opts.calibPath)
		if err != nil {
			return fmt.Errorf("loading calibration: %w", err)
		}
		m.Accuracy = set.Apply("accuracy", m.Accuracy)
		m.Fluency = set.Apply("fluency", m.Fluency)
		m.Tone = set.Apply("tone", m.Tone)
		m.TermMatch = set.Apply("term_match", m.TermMatch)
	}

	result := agg.Aggregate(m)
	matchRate := scoring.MatchRateEquivalent(result.WeightedScore, opts.matchType)

	if opts.outputFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			WeightedScore float64          `json:"weighted_score"`
			Decision      scoring.Decision `json:"decision"`
			MatchRate     float64          `json:"match_rate"`
		}{result.WeightedScore, result.Decision, matchRate})
	}

	fmt.Printf("Weighted score: %.2f\n", result.WeightedScore)
	fmt.Printf("Decision:       %s\n", result.Decision)
	fmt.Printf("Match rate:     %.2f (%s)\n", matchRate, opts.matchType)
	return nil
}
