package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tmgate/tmgate/pkg/batch"
	"github.com/tmgate/tmgate/pkg/calibration"
	"github.com/tmgate/tmgate/pkg/progress"
	"github.com/tmgate/tmgate/pkg/surface"
)

func newBatchCmd() *cobra.Command {
	var (
		input      string
		calibPath  string
		configPath string
		workers    int
		outputFmt  string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score a CSV batch of translation units",
		Long: `Streams units from a CSV file through the scoring pipeline with a worker
pool, logging progress as it goes, and renders the run summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), batchOpts{
				input:      input,
				calibPath:  calibPath,
				configPath: configPath,
				workers:    workers,
				outputFmt:  outputFmt,
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "CSV file of units to score (required)")
	cmd.Flags().StringVar(&calibPath, "calibration", "", "Calibration artifact applied to raw metric columns")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: discover .tmgate/config.yaml)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (default: from config)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

type batchOpts struct {
	input      string
	calibPath  string
	configPath string
	workers    int
	outputFmt  string
}

func runBatch(ctx context.Context, opts batchOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	agg, err := cfg.Aggregator()
	if err != nil {
		return err
	}

	// An explicit --calibration must exist; the configured artifact path is
	// only picked up when the file is actually there.
	var mappings calibration.Set
	calibPath := opts.calibPath
	if calibPath == "" {
		if p := cfg.Calibration.ArtifactPath; p != "" {
			if _, statErr := os.Stat(p); statErr == nil {
				calibPath = p
			}
		}
	}
	if calibPath != "" {
		mappings, err = calibration.LoadSet(calibPath)
		if err != nil {
			return fmt.Errorf("loading calibration: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Calibration: %s (%d metrics)\n", calibPath, len(mappings))
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	// The source streams, so count data rows up front to give the tracker
	// a real total, then rewind.
	total, err := countDataRows(f)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding input: %w", err)
	}

	src, err := batch.NewCSVSource(f)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	tracker := progress.NewTracker(total, nil, logger)

	// Periodic progress lines on stderr while the pool drains the file.
	interval := time.Duration(cfg.Batch.ProgressInterval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				tracker.LogProgress()
			}
		}
	}()

	driver := &batch.Driver{
		Aggregator: agg,
		Mappings:   mappings,
		Workers:    workers,
		Logger:     logger,
	}

	summary, runErr := driver.Run(ctx, src, tracker)
	if runErr != nil {
		return runErr
	}
	stopProgress()

	var renderer surface.Renderer
	switch opts.outputFmt {
	case "json":
		renderer = &surface.JSONRenderer{}
	default:
		renderer = &surface.TerminalRenderer{}
	}
	return renderer.Render(os.Stdout, summary)
}

// countDataRows counts non-empty lines after the header. Quoted multi-line
// CSV fields would overcount slightly; the tracker total only feeds
// percentage and ETA, so that is acceptable.
func countDataRows(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := -1 // header
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
