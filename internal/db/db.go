// Package db provides PostgreSQL persistence for repair run audits.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/uv-repair/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS repair_runs (
	id UUID PRIMARY KEY,
	input_path TEXT NOT NULL,
	output_path TEXT NOT NULL,
	marker TEXT NOT NULL,
	status TEXT NOT NULL,
	line_count INTEGER NOT NULL DEFAULT 0,
	anomalies_found INTEGER NOT NULL DEFAULT 0,
	anomalies_repaired INTEGER NOT NULL DEFAULT 0,
	anomalies_failed INTEGER NOT NULL DEFAULT 0,
	anomalies_skipped INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS anomaly_repairs (
	id BIGSERIAL PRIMARY KEY,
	run_id UUID NOT NULL REFERENCES repair_runs(id) ON DELETE CASCADE,
	line INTEGER NOT NULL,
	face_line INTEGER NOT NULL,
	slot INTEGER NOT NULL,
	status TEXT NOT NULL,
	original TEXT NOT NULL,
	replacement TEXT,
	source_line INTEGER,
	threshold DOUBLE PRECISION,
	cycles INTEGER NOT NULL DEFAULT 0,
	position_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
	texture_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (run_id, line)
);`

// EnsureSchema creates the audit tables when they do not exist yet
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateRun inserts a running repair run record under the given ID
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, inputPath, outputPath, marker string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO repair_runs (id, input_path, output_path, marker, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		runID, inputPath, outputPath, marker, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun stores the final counts of a run and marks it finished
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, report *types.RepairReport) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE repair_runs
		 SET status = $1, line_count = $2, anomalies_found = $3, anomalies_repaired = $4,
		     anomalies_failed = $5, anomalies_skipped = $6, completed_at = NOW()
		 WHERE id = $7`,
		RunStatus(report), report.LineCount, report.AnomaliesFound, report.AnomaliesRepaired,
		report.AnomaliesFailed, report.AnomaliesSkipped, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

const insertAnomalySQL = `INSERT INTO anomaly_repairs
	(run_id, line, face_line, slot, status, original, replacement, source_line, threshold,
	 cycles, position_distance, texture_distance, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (run_id, line) DO UPDATE SET status = $5, replacement = $7, source_line = $8,
	 threshold = $9, cycles = $10, position_distance = $11, texture_distance = $12, error = $13`

// SaveAnomalyRecords stores every anomaly outcome of a run in one batch
func (db *DB) SaveAnomalyRecords(ctx context.Context, runID uuid.UUID, records []types.AnomalyRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertAnomalySQL, anomalyArgs(runID, rec)...)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, rec := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save anomaly at line %d: %w", rec.Line, err)
		}
	}
	return nil
}

// RecordReport persists a finished run and its anomaly outcomes
func (db *DB) RecordReport(ctx context.Context, report *types.RepairReport) error {
	runID, err := uuid.Parse(report.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", report.RunID, err)
	}

	if err := db.CreateRun(ctx, runID, report.InputPath, report.OutputPath, report.Marker); err != nil {
		return err
	}
	if err := db.SaveAnomalyRecords(ctx, runID, report.Anomalies); err != nil {
		return err
	}
	return db.CompleteRun(ctx, runID, report)
}

// GetRun retrieves a repair run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, input_path, output_path, marker, status, line_count, anomalies_found,
		        anomalies_repaired, anomalies_failed, anomalies_skipped, created_at, completed_at
		 FROM repair_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.InputPath, &run.OutputPath, &run.Marker, &run.Status, &run.LineCount,
		&run.AnomaliesFound, &run.AnomaliesRepaired, &run.AnomaliesFailed, &run.AnomaliesSkipped,
		&run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListAnomalyRepairs returns the stored outcomes of a run ordered by line
func (db *DB) ListAnomalyRepairs(ctx context.Context, runID uuid.UUID) ([]AnomalyRepair, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, line, face_line, slot, status, original, replacement, source_line,
		        threshold, cycles, position_distance, texture_distance, error, created_at
		 FROM anomaly_repairs WHERE run_id = $1 ORDER BY line`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomaly repairs: %w", err)
	}
	defer rows.Close()

	var out []AnomalyRepair
	for rows.Next() {
		var a AnomalyRepair
		if err := rows.Scan(&a.ID, &a.RunID, &a.Line, &a.FaceLine, &a.Slot, &a.Status, &a.Original,
			&a.Replacement, &a.SourceLine, &a.Threshold, &a.Cycles, &a.PositionDistance,
			&a.TextureDistance, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly repair: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomaly repairs: %w", err)
	}
	return out, nil
}

// RunStatus derives the stored status of a finished run
func RunStatus(report *types.RepairReport) string {
	if report.AnomaliesFailed > 0 {
		return RunStatusCompletedFailures
	}
	return RunStatusCompleted
}

// anomalyArgs maps a record to insertAnomalySQL parameters; empty optional fields become NULL.
func anomalyArgs(runID uuid.UUID, rec types.AnomalyRecord) []any {
	var (
		replacement *string
		sourceLine  *int
		threshold   *float64
		errText     *string
	)
	if rec.Replacement != "" {
		replacement = &rec.Replacement
	}
	if rec.SourceLine > 0 {
		sourceLine = &rec.SourceLine
	}
	if rec.Status == types.StatusRepaired {
		threshold = &rec.Threshold
	}
	if rec.Error != "" {
		errText = &rec.Error
	}

	return []any{
		runID, rec.Line, rec.FaceLine, rec.Slot, string(rec.Status), rec.Original,
		replacement, sourceLine, threshold, rec.Cycles, rec.PositionDistance,
		rec.TextureDistance, errText,
	}
}
