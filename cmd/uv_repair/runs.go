package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/uv-repair/internal/db"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "Inspect repair runs recorded in PostgreSQL",
}

var runsShowCommand = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a recorded run and the outcome of each anomaly",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDatabaseURL string

func init() {
	runsCommand.PersistentFlags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")

	runsCommand.AddCommand(runsShowCommand)
	rootCmd.AddCommand(runsCommand)
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	databaseURL := runsDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("--db-url is required (via flag or DATABASE_URL)")
	}

	ctx := commandContext(cmd)
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	repairs, err := database.ListAnomalyRepairs(ctx, runID)
	if err != nil {
		return err
	}
	logger.Debug("Loaded run", zap.String("run_id", runID.String()), zap.Int("anomalies", len(repairs)))

	printRun(cmd.OutOrStdout(), run, repairs)
	return nil
}

func printRun(w io.Writer, run *db.Run, repairs []db.AnomalyRepair) {
	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(w, "  input:   %s\n", run.InputPath)
	fmt.Fprintf(w, "  output:  %s\n", run.OutputPath)
	fmt.Fprintf(w, "  marker:  %s\n", run.Marker)
	fmt.Fprintf(w, "  started: %s\n", run.CreatedAt.Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Fprintf(w, "  done:    %s\n", run.CompletedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  anomalies: %d found, %d repaired, %d failed, %d skipped\n",
		run.AnomaliesFound, run.AnomaliesRepaired, run.AnomaliesFailed, run.AnomaliesSkipped)

	for _, a := range repairs {
		switch {
		case a.Replacement != nil && a.SourceLine != nil && a.Threshold != nil:
			fmt.Fprintf(w, "%d\t%s\t%s <- line %d (threshold %.2f)\n", a.Line, a.Status, *a.Replacement, *a.SourceLine, *a.Threshold)
		case a.Error != nil:
			fmt.Fprintf(w, "%d\t%s\t%s\n", a.Line, a.Status, *a.Error)
		default:
			fmt.Fprintf(w, "%d\t%s\n", a.Line, a.Status)
		}
	}
}
