package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/uv-repair/internal/observability"
	"github.com/jonathan/uv-repair/internal/pipeline"
)

var scanCommand = &cobra.Command{
	Use:   "scan",
	Short: "List corrupted texture records without repairing them",
	RunE:  runScan,
}

var (
	scanFile   string
	scanMarker string
)

func init() {
	scanCommand.Flags().StringVarP(&scanFile, "file", "f", "", "Path to the OBJ file to scan")
	scanCommand.Flags().StringVar(&scanMarker, "marker", "", "Corruption marker (default \"#QNAN\")")

	rootCmd.AddCommand(scanCommand)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("file") {
		cfg.Input = scanFile
	}
	if cmd.Flags().Changed("marker") {
		cfg.Marker = scanMarker
	}
	if cfg.Input == "" {
		return fmt.Errorf("--file is required (via flag or config)")
	}

	idx, err := pipeline.Scan(cfg.Input, cfg.Marker)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	observability.NewPrinter(out).PrintIndexSummary(idx)
	for _, a := range idx.Anomalies() {
		fmt.Fprintf(out, "%d\t%s\n", a.Line, a.Pair().TextureText)
	}
	for _, a := range idx.Skipped() {
		fmt.Fprintf(out, "%d\t%s\t(skipped: face %d has several corrupted records)\n", a.Line, a.Pair().TextureText, a.Group.FaceLine)
	}
	fmt.Fprintf(out, "Found %d anomalies (%d repairable, %d skipped)\n",
		len(idx.Anomalies())+len(idx.Skipped()), len(idx.Anomalies()), len(idx.Skipped()))
	return nil
}
