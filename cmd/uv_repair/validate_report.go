package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/uv-repair/internal/schemas"
)

var validateReportCommand = &cobra.Command{
	Use:   "validate-report",
	Short: "Validate a repair report against its JSON Schema",
	RunE:  runValidateReport,
}

var (
	validateReportFile   string
	validateReportSchema string
)

func init() {
	validateReportCommand.Flags().StringVarP(&validateReportFile, "file", "f", "", "Path to the JSON repair report")
	_ = validateReportCommand.MarkFlagRequired("file")
	validateReportCommand.Flags().StringVar(&validateReportSchema, "schema", "", "Validate against this schema file instead of the built-in one")

	rootCmd.AddCommand(validateReportCommand)
}

func runValidateReport(cmd *cobra.Command, _ []string) error {
	if validateReportSchema != "" {
		schemaPath, err := schemas.FindSchema(validateReportSchema)
		if err != nil {
			return err
		}
		logger.Debug("Validating against schema file", zap.String("schema", schemaPath))
		if err := schemas.ValidateReportWithSchema(schemaPath, validateReportFile); err != nil {
			return err
		}
	} else if err := schemas.ValidateReportFile(validateReportFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report %s is valid\n", validateReportFile)
	return nil
}
