// Package schemas provides JSON Schema validation for the artifacts a run writes.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FindSchema locates a schema file given on the command line. Relative paths are
// tried against the working directory and then up to two parent directories, so
// the repository's schema resolves from cmd/ and internal/ as well as the root.
func FindSchema(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("schema path is empty")
	}

	tries := []string{path}
	if !filepath.IsAbs(path) {
		tries = append(tries, filepath.Join("..", path), filepath.Join("..", "..", path))
	}
	for _, try := range tries {
		abs, err := filepath.Abs(try)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("schema file not found: %s", path)
}

// ValidationError lists every place a document breaks its schema.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError means the schema or the document could not be loaded at all.
type SchemaLoadError struct {
	Schema string
	Cause  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Schema, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateReportWithSchema validates the report at reportPath against the schema
// file at schemaPath instead of the embedded one. The schema is loaded by file
// reference so relative $ref entries resolve next to it.
func ValidateReportWithSchema(schemaPath, reportPath string) error {
	abs, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path %s: %w", schemaPath, err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("failed to read report %s: %w", reportPath, err)
	}

	return validate(
		gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(abs)),
		gojsonschema.NewBytesLoader(data),
		abs,
	)
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader, schemaName string) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{Schema: schemaName, Cause: err}
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}
