package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tmgate/tmgate/pkg/calibration"
)

func newCalibrateCmd() *cobra.Command {
	var (
		input      string
		out        string
		configPath string
		strictRows bool
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Fit calibration mappings from a labeled dataset",
		Long: `Reads a CSV of raw metric signals paired with human judgments, fits a
monotone mapping per metric, and writes the mappings as a JSON artifact.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(cmd.Context(), calibrateOpts{
				input:      input,
				out:        out,
				configPath: configPath,
				strictRows: strictRows,
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CSV dataset with human judgments and raw metric columns (required)")
	cmd.Flags().StringVar(&out, "out", "", "Output path for the calibration artifact (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: discover .tmgate/config.yaml)")
	cmd.Flags().BoolVar(&strictRows, "strict-rows", false, "Fail on the first unparseable dataset row instead of skipping it")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

type calibrateOpts struct {
	input      string
	out        string
	configPath string
	strictRows bool
}

func runCalibrate(ctx context.Context, opts calibrateOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	policy := calibration.SkipInvalidRows
	if opts.strictRows || cfg.Calibration.FailOnBadRows {
		policy = calibration.FailOnInvalidRow
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	ds, err := calibration.ParseDataset(f, policy)
	if err != nil {
		return fmt.Errorf("parsing dataset: %w", err)
	}
	if ds.SkippedRows > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d unparseable rows\n", ds.SkippedRows)
	}

	// Fit every metric column independently. One metric with too little or
	// degenerate data should not sink the rest of the artifact.
	set := calibration.Set{}
	for _, metric := range ds.MetricNames() {
		mapping, err := calibration.Fit(ctx, metric, ds.Metrics[metric], ds.Human)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s not fitted: %v\n", metric, err)
			continue
		}
		set[metric] = mapping
		fmt.Fprintf(os.Stderr, "Fitted %s: %d breakpoints over %d rows\n", metric, len(mapping.X), len(ds.Human))
	}
	if len(set) == 0 {
		return fmt.Errorf("no metric could be fitted from %s", opts.input)
	}

	if err := calibration.SaveSet(opts.out, set); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Calibration saved: %s\n", opts.out)
	return nil
}
