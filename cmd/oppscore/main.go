package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/foodlytics/oppscore/internal/application"
	"github.com/foodlytics/oppscore/internal/config"
)

const (
	appName = "oppscore"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Restaurant opportunity scoring pipeline",
		Version: version,
		Long: `oppscore ingests a restaurant listings dataset and exports ranked
locality/cuisine opportunity tables for the dashboard.

One run per dataset refresh: filter, cuisine expansion, demand filter,
reverse geocoding, aggregation, composite scoring, CSV export.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one scoring run",
		Long:  "Runs the full batch once and writes the scored tables, metrics snapshot, and run manifest to the output directory.",
		RunE:  runPipeline,
	}

	runCmd.Flags().String("config", "", "Path to YAML config file")
	runCmd.Flags().String("input", "", "Input listings CSV (overrides config)")
	runCmd.Flags().String("out", "", "Output directory (overrides config)")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	inputPath, _ := cmd.Flags().GetString("input")
	outDir, _ := cmd.Flags().GetString("out")

	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if inputPath != "" {
		cfg.Input.Path = inputPath
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	pipeline, err := application.New(cfg)
	if err != nil {
		return err
	}

	manifest, err := pipeline.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("run %s complete: %d groups scored\n", manifest.RunID, manifest.RowCounts.Aggregates)
	for _, output := range manifest.Outputs {
		fmt.Println("  " + output)
	}

	return nil
}
