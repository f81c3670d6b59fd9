package schemas

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// RepairReportSchema is the JSON Schema every written repair report must satisfy.
//
//go:embed repair_report.schema.json
var RepairReportSchema string

// ValidateReport validates an encoded repair report against the embedded schema.
func ValidateReport(data []byte) error {
	return validate(
		gojsonschema.NewStringLoader(RepairReportSchema),
		gojsonschema.NewBytesLoader(data),
		"repair_report.schema.json",
	)
}

// ValidateReportFile reads path and validates it as a repair report.
func ValidateReportFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read report %s: %w", path, err)
	}
	return ValidateReport(data)
}
