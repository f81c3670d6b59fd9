package schemas

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/uv-repair/internal/types"
)

const vertexSchema = `{
	"type": "object",
	"required": ["line", "components"],
	"properties": {
		"line": {"type": "integer", "minimum": 1},
		"components": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 3}
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateReportWithSchema(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "valid", content: `{"line": 3, "components": [0.1, 0.9]}`},
		{name: "missing field", content: `{"line": 3}`, wantErr: true},
		{name: "wrong type", content: `{"line": "three", "components": [0.1, 0.9]}`, wantErr: true},
		{name: "too many components", content: `{"line": 3, "components": [1, 2, 3, 4]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			schemaPath := writeFile(t, dir, "vertex.schema.json", vertexSchema)
			docPath := writeFile(t, dir, "vertex.json", tt.content)

			err := ValidateReportWithSchema(schemaPath, docPath)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateReportWithSchema_FieldPath(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "vertex.schema.json", vertexSchema)
	docPath := writeFile(t, dir, "vertex.json", `{"line": 0, "components": [0, 1]}`)

	err := ValidateReportWithSchema(schemaPath, docPath)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "line", validationErr.Errors[0].Field)
}

func TestValidateReportWithSchema_LoadFailures(t *testing.T) {
	dir := t.TempDir()
	docPath := writeFile(t, dir, "vertex.json", `{"line": 1, "components": [0, 0]}`)

	err := ValidateReportWithSchema(filepath.Join(dir, "missing.schema.json"), docPath)
	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr), "got %v", err)
	assert.NotNil(t, loadErr.Unwrap())

	badSchema := writeFile(t, dir, "bad.schema.json", `{ not a schema`)
	err = ValidateReportWithSchema(badSchema, docPath)
	require.True(t, errors.As(err, &loadErr), "got %v", err)

	goodSchema := writeFile(t, dir, "vertex.schema.json", vertexSchema)
	err = ValidateReportWithSchema(goodSchema, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read report")
}

func TestValidateReportWithSchema_ReportSchemaOnDisk(t *testing.T) {
	data, err := json.Marshal(validReport())
	require.NoError(t, err)
	reportPath := writeFile(t, t.TempDir(), "report.json", string(data))

	schemaPath, err := FindSchema("repair_report.schema.json")
	require.NoError(t, err)
	assert.NoError(t, ValidateReportWithSchema(schemaPath, reportPath))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "line", Message: "Must be greater than or equal to 1"},
		{Field: "(root)", Message: "components is required"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "1. line: Must be greater than or equal to 1")
	assert.Contains(t, msg, "2. (root): components is required")
}

func TestFindSchema(t *testing.T) {
	path, err := FindSchema("repair_report.schema.json")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	_, err = FindSchema(filepath.Join("internal", "schemas", "repair_report.schema.json"))
	assert.NoError(t, err, "resolves from two levels up")

	_, err = FindSchema("no_such.schema.json")
	assert.Error(t, err)

	_, err = FindSchema(t.TempDir())
	assert.Error(t, err, "directories are not schemas")

	_, err = FindSchema("")
	assert.Error(t, err)
}

func validReport() types.RepairReport {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return types.RepairReport{
		RunID:             "5b7f6a8e-0d7c-4d8e-9a55-0d1f3f0b6c11",
		InputPath:         "mesh.obj",
		OutputPath:        "repaired.obj",
		Marker:            "#QNAN",
		StartedAt:         start,
		CompletedAt:       start.Add(time.Second),
		LineCount:         30,
		FaceGroups:        3,
		AttributePairs:    9,
		AnomaliesFound:    2,
		AnomaliesRepaired: 1,
		AnomaliesFailed:   1,
		Anomalies: []types.AnomalyRecord{
			{
				Line: 6, FaceLine: 10, Slot: 1, Status: types.StatusRepaired,
				Original: "vt #QNAN #QNAN", Replacement: "vt 0.15 0.15",
				SourceLine: 19, Threshold: 0.25, CandidatesTried: 3,
			},
			{
				Line: 26, FaceLine: 30, Slot: 1, Status: types.StatusFailed,
				Original: "vt #QNAN #QNAN", Error: "resolve error at line 26",
			},
		},
	}
}

func TestValidateReport(t *testing.T) {
	data, err := json.Marshal(validReport())
	require.NoError(t, err)
	assert.NoError(t, ValidateReport(data))
}

func TestValidateReport_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *types.RepairReport)
	}{
		{name: "unknown status", mutate: func(r *types.RepairReport) { r.Anomalies[1].Status = "pending" }},
		{name: "repaired without replacement", mutate: func(r *types.RepairReport) { r.Anomalies[0].Replacement = "" }},
		{name: "replacement not a texture record", mutate: func(r *types.RepairReport) { r.Anomalies[0].Replacement = "v 1 2 3" }},
		{name: "slot out of range", mutate: func(r *types.RepairReport) { r.Anomalies[0].Slot = 3 }},
		{name: "empty run id", mutate: func(r *types.RepairReport) { r.RunID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := validReport()
			tt.mutate(&report)
			data, err := json.Marshal(report)
			require.NoError(t, err)

			err = ValidateReport(data)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
		})
	}
}

func TestValidateReportFile(t *testing.T) {
	data, err := json.Marshal(validReport())
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "report.json", string(data))

	assert.NoError(t, ValidateReportFile(path))

	err = ValidateReportFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read report")
}
