// Package types defines the structured artifacts produced by a repair run.
package types

import "time"

// AnomalyStatus is the final state of one corrupted texture record.
type AnomalyStatus string

const (
	// StatusRepaired means a replacement was written to the output.
	StatusRepaired AnomalyStatus = "repaired"
	// StatusFailed means the repair task errored; the line passes through unchanged.
	StatusFailed AnomalyStatus = "failed"
	// StatusSkipped means the face group had several corrupted pairs and was not attempted.
	StatusSkipped AnomalyStatus = "skipped"
)

// AnomalyRecord describes what happened to one corrupted texture line.
type AnomalyRecord struct {
	Line             int           `json:"line"`
	FaceLine         int           `json:"face_line"`
	Slot             int           `json:"slot"`
	Status           AnomalyStatus `json:"status"`
	Original         string        `json:"original"`
	Replacement      string        `json:"replacement,omitempty"`
	SourceLine       int           `json:"source_line,omitempty"`
	Threshold        float64       `json:"threshold,omitempty"`
	Cycles           int           `json:"cycles"`
	PositionDistance float64       `json:"position_distance"`
	TextureDistance  float64       `json:"texture_distance"`
	CandidatesTried  int           `json:"candidates_tried"`
	DurationMillis   int64         `json:"duration_ms"`
	Error            string        `json:"error,omitempty"`
}

// RepairReport summarizes a run over one input file.
type RepairReport struct {
	RunID             string          `json:"run_id"`
	InputPath         string          `json:"input_path"`
	OutputPath        string          `json:"output_path"`
	Marker            string          `json:"marker"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       time.Time       `json:"completed_at"`
	LineCount         int             `json:"line_count"`
	FaceGroups        int             `json:"face_groups"`
	AttributePairs    int             `json:"attribute_pairs"`
	MalformedPairs    int             `json:"malformed_pairs"`
	AnomaliesFound    int             `json:"anomalies_found"`
	AnomaliesRepaired int             `json:"anomalies_repaired"`
	AnomaliesFailed   int             `json:"anomalies_failed"`
	AnomaliesSkipped  int             `json:"anomalies_skipped"`
	Anomalies         []AnomalyRecord `json:"anomalies"`
}

// Unrepaired returns how many found anomalies were left as-is.
func (r *RepairReport) Unrepaired() int {
	return r.AnomaliesFound - r.AnomaliesRepaired
}

// Duration returns the wall time of the run.
func (r *RepairReport) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
