// Package pipeline orchestrates a full repair run from input file to report.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/uv-repair/internal/db"
	"github.com/jonathan/uv-repair/internal/mesh"
	"github.com/jonathan/uv-repair/internal/observability"
	"github.com/jonathan/uv-repair/internal/rendering"
	"github.com/jonathan/uv-repair/internal/repair"
	"github.com/jonathan/uv-repair/internal/schemas"
	"github.com/jonathan/uv-repair/internal/types"
)

// Progress steps reported through ProgressCallback
const (
	StepLoad   = "load"
	StepIndex  = "index"
	StepRepair = "repair"
	StepWrite  = "write"
	StepReport = "report"
	StepAudit  = "audit"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// AuditStore persists finished runs.
type AuditStore interface {
	RecordReport(ctx context.Context, report *types.RepairReport) error
	Close()
}

// StoreOpener connects to an AuditStore.
type StoreOpener func(ctx context.Context, databaseURL string) (AuditStore, error)

// RunOptions holds configuration for a repair run
type RunOptions struct {
	InputPath   string
	OutputPath  string
	ReportPath  string
	MetricsPath string
	DatabaseURL string
	Marker      string
	Workers     int
	TaskTimeout time.Duration
	Repair      repair.Options
	Verbose     bool
	Logger      *zap.Logger
	Out         io.Writer
	OnProgress  ProgressCallback
	OpenStore   StoreOpener
}

func (opts *RunOptions) emit(runID, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:    step,
			Message: message,
			RunID:   runID,
			Content: content,
		})
	}
}

// OpenPostgresStore connects to Postgres and makes sure the audit tables exist.
func OpenPostgresStore(ctx context.Context, databaseURL string) (AuditStore, error) {
	store, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// Run repairs opts.InputPath into opts.OutputPath.
//
// Loading and writing failures are returned. Individual anomalies that cannot be
// repaired are only reported. The report, metrics and audit steps are best effort
// and log a warning when they fail.
func Run(ctx context.Context, opts RunOptions) (*types.RepairReport, error) {
	if opts.InputPath == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.OutputPath == "" {
		opts.OutputPath = filepath.Join(filepath.Dir(opts.InputPath), rendering.DefaultOutputName)
	}
	if opts.Marker == "" {
		opts.Marker = mesh.DefaultMarker
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.OpenStore == nil {
		opts.OpenStore = OpenPostgresStore
	}
	out := opts.Out
	printer := observability.NewPrinter(out)

	runID := uuid.New().String()
	logger := opts.Logger.With(zap.String("run_id", runID))
	started := time.Now()
	fmt.Fprintf(out, "Starting up @ %s\n", started.Format("2006-01-02 15:04:05.000000"))

	// Step 1: Load
	opts.emit(runID, StepLoad, "Loading input file", opts.InputPath)
	store, err := mesh.LoadLines(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	logger.Debug("Loaded input", zap.String("path", opts.InputPath), zap.Int("lines", store.Len()))

	// Step 2: Index
	idx := mesh.BuildIndex(store, opts.Marker)
	anomalies := idx.Anomalies()
	opts.emit(runID, StepIndex, fmt.Sprintf("Indexed %d face groups", len(idx.Groups())), len(anomalies))
	fmt.Fprintf(out, "%d anomalies to repair...\n", len(anomalies))
	if skipped := idx.Skipped(); len(skipped) > 0 {
		logger.Warn("Skipping face groups with several corrupted texture records",
			zap.Int("anomalies", len(skipped)))
	}
	if opts.Verbose {
		printer.PrintIndexSummary(idx)
	}

	// Step 3: Repair
	opts.emit(runID, StepRepair, "Resolving anomalies", nil)
	scheduler := repair.NewScheduler(repair.NewResolver(opts.Repair), repair.SchedulerOptions{
		Workers:     opts.Workers,
		TaskTimeout: opts.TaskTimeout,
		Logger:      logger,
	})
	results, err := scheduler.Run(ctx, idx, anomalies)
	if err != nil {
		return nil, fmt.Errorf("repair interrupted: %w", err)
	}

	// Step 4: Write
	opts.emit(runID, StepWrite, "Writing repaired file", opts.OutputPath)
	replaced, err := rendering.WriteRepairedFile(opts.OutputPath, store, results.Replacements)
	if err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	logger.Debug("Wrote output", zap.String("path", opts.OutputPath), zap.Int("replaced", replaced))

	report := BuildReport(runID, opts, idx, results, started, time.Now())

	// Step 5: Report
	if opts.ReportPath != "" {
		opts.emit(runID, StepReport, "Writing repair report", opts.ReportPath)
		if err := WriteReport(opts.ReportPath, report); err != nil {
			logger.Warn("Repair report not written", zap.String("path", opts.ReportPath), zap.Error(err))
		}
	}

	if opts.MetricsPath != "" {
		metrics := observability.NewRunMetrics()
		metrics.ObserveReport(report)
		if err := metrics.WriteTextfile(opts.MetricsPath); err != nil {
			logger.Warn("Metrics not written", zap.Error(err))
		}
	}

	// Step 6: Audit
	if opts.DatabaseURL != "" {
		opts.emit(runID, StepAudit, "Recording run", nil)
		recordAudit(ctx, opts, report, logger)
	}

	if opts.Verbose {
		printer.PrintAnomalies(report.Anomalies)
		printer.PrintReport(report)
	}
	fmt.Fprintf(out, "Found %d anomalies, repaired %d\n", report.AnomaliesFound, report.AnomaliesRepaired)

	return report, nil
}

func recordAudit(ctx context.Context, opts RunOptions, report *types.RepairReport, logger *zap.Logger) {
	store, err := opts.OpenStore(ctx, opts.DatabaseURL)
	if err != nil {
		logger.Warn("Failed to connect to database, continuing without persistence", zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.RecordReport(ctx, report); err != nil {
		logger.Warn("Failed to record run", zap.Error(err))
		return
	}
	logger.Debug("Recorded run in database")
}

// BuildReport assembles the run report from the index and scheduler results.
// Records are ordered by line; skipped anomalies are included.
func BuildReport(runID string, opts RunOptions, idx *mesh.Index, results *repair.Results, started, completed time.Time) *types.RepairReport {
	report := &types.RepairReport{
		RunID:          runID,
		InputPath:      opts.InputPath,
		OutputPath:     opts.OutputPath,
		Marker:         opts.Marker,
		StartedAt:      started.UTC(),
		CompletedAt:    completed.UTC(),
		LineCount:      idx.LineCount(),
		FaceGroups:     len(idx.Groups()),
		AttributePairs: idx.PairCount(),
		MalformedPairs: idx.MalformedCount(),
	}

	records := make([]types.AnomalyRecord, 0, len(results.Outcomes)+len(idx.Skipped()))
	for _, o := range results.Outcomes {
		rec := baseRecord(o.Anomaly)
		rec.DurationMillis = o.Duration.Milliseconds()
		if o.Err != nil {
			rec.Status = types.StatusFailed
			rec.Error = o.Err.Error()
			report.AnomaliesFailed++
		} else {
			r := o.Resolution
			rec.Status = types.StatusRepaired
			rec.Replacement = r.Replacement
			rec.SourceLine = r.SourceLine
			rec.Threshold = r.Threshold
			rec.Cycles = r.Cycles
			rec.PositionDistance = r.PositionDistance
			rec.TextureDistance = r.TextureDistance
			rec.CandidatesTried = r.CandidatesTried
			report.AnomaliesRepaired++
		}
		records = append(records, rec)
	}
	for _, a := range idx.Skipped() {
		rec := baseRecord(a)
		rec.Status = types.StatusSkipped
		rec.Error = "face group has several corrupted texture records"
		records = append(records, rec)
		report.AnomaliesSkipped++
	}

	sortRecords(records)
	report.Anomalies = records
	report.AnomaliesFound = len(records)
	return report
}

func sortRecords(records []types.AnomalyRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Line < records[j].Line
	})
}

func baseRecord(a mesh.Anomaly) types.AnomalyRecord {
	pair := a.Pair()
	return types.AnomalyRecord{
		Line:     a.Line,
		FaceLine: a.Group.FaceLine,
		Slot:     pair.Slot,
		Original: pair.TextureText,
	}
}

// WriteReport writes report as indented JSON and checks it against the report schema.
// The file is kept even when the schema check fails.
func WriteReport(path string, report *types.RepairReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := schemas.ValidateReport(data); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}
	return nil
}

// Scan loads and indexes path without repairing anything.
func Scan(path, marker string) (*mesh.Index, error) {
	store, err := mesh.LoadLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	return mesh.BuildIndex(store, marker), nil
}
