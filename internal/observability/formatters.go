// Package observability provides logging, metrics and formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/uv-repair/internal/mesh"
	"github.com/jonathan/uv-repair/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIndexSummary outputs the shape of an indexed file and its first anomalies.
func (p *Printer) PrintIndexSummary(idx *mesh.Index) {
	if idx == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Lines:            %d\n", idx.LineCount()))
	sb.WriteString(fmt.Sprintf("Face groups:      %d\n", len(idx.Groups())))
	sb.WriteString(fmt.Sprintf("Attribute pairs:  %d\n", idx.PairCount()))
	sb.WriteString(fmt.Sprintf("Malformed pairs:  %d\n", idx.MalformedCount()))
	sb.WriteString(fmt.Sprintf("Anomalies:        %d\n", len(idx.Anomalies())))
	sb.WriteString(fmt.Sprintf("Skipped:          %d", len(idx.Skipped())))

	anomalies := idx.Anomalies()
	if len(anomalies) > 0 {
		sb.WriteString("\n\nCorrupted texture lines:\n")
		count := min(len(anomalies), maxItemsToShow)
		for i := 0; i < count; i++ {
			a := anomalies[i]
			sb.WriteString(fmt.Sprintf("  • line %d (face %d, slot %d)\n", a.Line, a.Group.FaceLine, a.Pair().Slot))
		}
		if len(anomalies) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(anomalies)-maxItemsToShow))
		}
	}

	p.printBox("INDEX SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAnomalies outputs per-anomaly outcomes in the order given.
func (p *Printer) PrintAnomalies(records []types.AnomalyRecord) {
	if len(records) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(records), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := records[i]
		sb.WriteString(fmt.Sprintf("Line %d  [%s]\n", rec.Line, rec.Status))
		switch rec.Status {
		case types.StatusRepaired:
			sb.WriteString(fmt.Sprintf("    From line %d at threshold %.2f\n", rec.SourceLine, rec.Threshold))
			sb.WriteString(fmt.Sprintf("    %s\n", rec.Replacement))
		default:
			if rec.Error != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", rec.Error))
			}
		}
	}
	if len(records) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more", len(records)-maxItemsToShow))
	}

	p.printBox("ANOMALY OUTCOMES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs the run totals.
func (p *Printer) PrintReport(report *types.RepairReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Input:     %s\n", report.InputPath))
	sb.WriteString(fmt.Sprintf("Output:    %s\n", report.OutputPath))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Found:     %d\n", report.AnomaliesFound))
	sb.WriteString(fmt.Sprintf("Repaired:  %d\n", report.AnomaliesRepaired))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", report.AnomaliesFailed))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", report.AnomaliesSkipped))
	sb.WriteString(fmt.Sprintf("Elapsed:   %s", report.Duration().Round(time.Millisecond)))

	p.printBox("REPAIR SUMMARY", sb.String())
}
