package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a repair run record
type Run struct {
	ID                uuid.UUID  `json:"id"`
	InputPath         string     `json:"input_path"`
	OutputPath        string     `json:"output_path"`
	Marker            string     `json:"marker"`
	Status            string     `json:"status"`
	LineCount         int        `json:"line_count"`
	AnomaliesFound    int        `json:"anomalies_found"`
	AnomaliesRepaired int        `json:"anomalies_repaired"`
	AnomaliesFailed   int        `json:"anomalies_failed"`
	AnomaliesSkipped  int        `json:"anomalies_skipped"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// AnomalyRepair is one stored anomaly outcome
type AnomalyRepair struct {
	ID               int64     `json:"id"`
	RunID            uuid.UUID `json:"run_id"`
	Line             int       `json:"line"`
	FaceLine         int       `json:"face_line"`
	Slot             int       `json:"slot"`
	Status           string    `json:"status"`
	Original         string    `json:"original"`
	Replacement      *string   `json:"replacement,omitempty"`
	SourceLine       *int      `json:"source_line,omitempty"`
	Threshold        *float64  `json:"threshold,omitempty"`
	Cycles           int       `json:"cycles"`
	PositionDistance float64   `json:"position_distance"`
	TextureDistance  float64   `json:"texture_distance"`
	Error            *string   `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Run status values
const (
	RunStatusRunning           = "running"
	RunStatusCompleted         = "completed"
	RunStatusCompletedFailures = "completed_with_failures"
)
