package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/uv-repair/internal/config"
	"github.com/jonathan/uv-repair/internal/pipeline"
	"github.com/jonathan/uv-repair/internal/repair"
)

var repairCommand = &cobra.Command{
	Use:   "repair",
	Short: "Repair every corrupted texture record and write a fixed copy",
	Long: `Indexes the input file, resolves each corrupted texture record in parallel and writes
a repaired copy with the same number of lines.

By default the sibling threshold keeps relaxing until a candidate fits, which may never
happen for some faces. Use --max-cycles, --max-threshold or --task-timeout to bound it.

Configuration can be loaded from a JSON or YAML file using --config. Command-line
arguments override config file values.`,
	RunE: runRepair,
}

var (
	repairFile         string
	repairOut          string
	repairReport       string
	repairMetricsFile  string
	repairDatabaseURL  string
	repairMarker       string
	repairWorkers      int
	repairMaxCycles    int
	repairMaxThreshold float64
	repairTaskTimeout  time.Duration
)

func init() {
	repairCommand.Flags().StringVarP(&repairFile, "file", "f", "", "Path to the OBJ file to repair")
	repairCommand.Flags().StringVarP(&repairOut, "out", "o", "", "Path of the repaired copy (default \""+config.DefaultOutput+"\" next to the input)")
	repairCommand.Flags().StringVar(&repairReport, "report", "", "Write a JSON repair report to this path")
	repairCommand.Flags().StringVar(&repairMetricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this path")
	repairCommand.Flags().StringVar(&repairDatabaseURL, "db-url", "", "PostgreSQL connection URL for run audits (optional, defaults to DATABASE_URL env var)")
	repairCommand.Flags().StringVar(&repairMarker, "marker", "", "Corruption marker (default \""+config.DefaultMarker+"\")")
	repairCommand.Flags().IntVarP(&repairWorkers, "workers", "w", 0, "Concurrent repair tasks (default: number of CPUs)")
	repairCommand.Flags().IntVar(&repairMaxCycles, "max-cycles", 0, "Give up on an anomaly after this many threshold increases (0 = never)")
	repairCommand.Flags().Float64Var(&repairMaxThreshold, "max-threshold", 0, "Give up once the threshold would exceed this value (0 = never)")
	repairCommand.Flags().DurationVar(&repairTaskTimeout, "task-timeout", 0, "Give up on an anomaly after this long (0 = never)")

	rootCmd.AddCommand(repairCommand)
}

func runRepair(cmd *cobra.Command, _ []string) error {
	// Step 1: Load config file if provided
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	applyRepairFlags(cmd, &cfg)

	// Step 3: Apply defaults for unset values
	cfg = cfg.WithBuiltinDefaults()
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	// Step 4: Validate the merged configuration
	if cfg.Input == "" {
		return fmt.Errorf("--file is required (via flag or config)")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Verbose && !verbose {
		if err := setLogger(true); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runOptions(cfg)
	opts.Logger = logger
	opts.Out = cmd.OutOrStdout()

	report, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	if report.Unrepaired() > 0 {
		logger.Warn("Some anomalies were left unrepaired",
			zap.Int("found", report.AnomaliesFound),
			zap.Int("repaired", report.AnomaliesRepaired))
	}
	return nil
}

func applyRepairFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.Input = repairFile
	}
	if flags.Changed("out") {
		cfg.Output = repairOut
	}
	if flags.Changed("report") {
		cfg.Report = repairReport
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = repairMetricsFile
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = repairDatabaseURL
	}
	if flags.Changed("marker") {
		cfg.Marker = repairMarker
	}
	if flags.Changed("workers") {
		cfg.Workers = repairWorkers
	}
	if flags.Changed("max-cycles") {
		cfg.MaxCycles = repairMaxCycles
	}
	if flags.Changed("max-threshold") {
		cfg.MaxThreshold = repairMaxThreshold
	}
	if flags.Changed("task-timeout") {
		cfg.TaskTimeout = config.Duration(repairTaskTimeout)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
}

// runOptions maps a merged config onto pipeline options.
func runOptions(cfg config.Config) pipeline.RunOptions {
	return pipeline.RunOptions{
		InputPath:   cfg.Input,
		OutputPath:  cfg.Output,
		ReportPath:  cfg.Report,
		MetricsPath: cfg.MetricsFile,
		DatabaseURL: cfg.DatabaseURL,
		Marker:      cfg.Marker,
		Workers:     cfg.Workers,
		TaskTimeout: time.Duration(cfg.TaskTimeout),
		Verbose:     cfg.Verbose,
		Repair: repair.Options{
			InitialThreshold: cfg.InitialThreshold,
			ThresholdStep:    cfg.ThresholdStep,
			MaxThreshold:     cfg.MaxThreshold,
			MaxCycles:        cfg.MaxCycles,
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
