// Package main provides the tmgate CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tmgate/tmgate/pkg/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tmgate",
		Short: "Quality gating for machine translation pipelines",
		Long: `TMGate aggregates per-segment quality metrics into weighted scores,
routes each translation to an automated or human decision, and fits
calibration mappings from human-labeled datasets.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newCalibrateCmd(),
		newScoreCmd(),
		newBatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the nearest config file, falling back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.DefaultConfig(), nil
		}
		path = firstNonEmpty(path, config.FindConfigFile(wd))
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
