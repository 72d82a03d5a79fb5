package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/buildsense/carbontally/internal/engine"
	"github.com/buildsense/carbontally/internal/equiv"
)

// Summary rendering constants.
const (
	summaryBoxWidth    = 64
	summaryRulePadding = 4 // Padding for the title separator line
)

// summaryTitleColor returns the title color for styled output.
func summaryTitleColor() lipgloss.Color {
	return lipgloss.Color("36")
}

// summaryBorderColor returns the box border color for styled output.
func summaryBorderColor() lipgloss.Color {
	return lipgloss.Color("240")
}

// RenderReportSummary writes the human-readable report summary to w.
// Terminals get a styled Lip Gloss box; pipes and files get plain text
// with identical content.
func RenderReportSummary(w io.Writer, report *engine.Report) error {
	if isWriterTerminal(w) {
		return renderStyledSummary(w, report)
	}
	return renderPlainSummary(w, report)
}

// isWriterTerminal reports whether the provided io.Writer refers to a
// terminal.
func isWriterTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// renderStyledSummary renders the summary inside a rounded box.
func renderStyledSummary(w io.Writer, report *engine.Report) error {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(summaryTitleColor())

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("33"))

	borderStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(summaryBorderColor()).
		Padding(0, 1).
		Width(summaryBoxWidth)

	var content strings.Builder
	content.WriteString(titleStyle.Render("CO2 CALCULATION REPORT"))
	content.WriteString("\n")
	content.WriteString(strings.Repeat("─", summaryBoxWidth-summaryRulePadding))
	content.WriteString("\n\n")
	content.WriteString(summaryHeaderLines(report))

	if report.ByCategory.Len() > 0 {
		content.WriteString("\n")
		content.WriteString(sectionStyle.Render("Breakdown by Material"))
		content.WriteString("\n")
		content.WriteString(categoryLines(report))
	}

	if trailer := summaryTrailerLines(report); trailer != "" {
		content.WriteString("\n")
		content.WriteString(trailer)
	}

	_, err := fmt.Fprintln(w, borderStyle.Render(content.String()))
	return err
}

// renderPlainSummary renders the summary as plain text, in the shape
// downstream tooling and logs have come to expect.
func renderPlainSummary(w io.Writer, report *engine.Report) error {
	rule := strings.Repeat("=", summaryBoxWidth)

	var content strings.Builder
	content.WriteString(rule + "\n")
	content.WriteString("CO2 CALCULATION REPORT\n")
	content.WriteString(rule + "\n\n")
	content.WriteString(summaryHeaderLines(report))

	if report.ByCategory.Len() > 0 {
		content.WriteString("\nBreakdown by Material:\n")
		content.WriteString(categoryLines(report))
	}

	if trailer := summaryTrailerLines(report); trailer != "" {
		content.WriteString("\n")
		content.WriteString(trailer)
	}
	content.WriteString(rule + "\n")

	_, err := io.WriteString(w, content.String())
	return err
}

// summaryHeaderLines formats the input provenance and the grand totals.
func summaryHeaderLines(report *engine.Report) string {
	s := report.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "Input: %s (database %s)\n", s.InputFile, s.DatabaseVersion)
	fmt.Fprintf(&b, "Elements: %d total, %d calculated (%.1f%%)\n\n",
		s.TotalElements, s.Calculated, s.CompletenessPct)
	fmt.Fprintf(&b, "TOTAL CO2 IMPACT: %s kg CO2-eq\n", equiv.FormatFloat(s.TotalCO2Kg, 2))
	fmt.Fprintf(&b, "Total Mass: %s kg\n", equiv.FormatFloat(s.TotalMassKg, 2))
	if line, ok := equiv.Line(s.TotalCO2Kg); ok {
		b.WriteString(line + "\n")
	}
	return b.String()
}

// categoryLines formats the by-category breakdown in report order
// (descending CO2).
func categoryLines(report *engine.Report) string {
	var b strings.Builder
	for _, name := range report.ByCategory.Names() {
		total, _ := report.ByCategory.Get(name)
		fmt.Fprintf(&b, "  %-16s | %3d elements | %14s kg CO2 (%5.1f%%)\n",
			name, total.Count, equiv.FormatFloat(total.CO2Kg, 2), total.Percentage)
	}
	return b.String()
}

// summaryTrailerLines formats the skipped-element note, if any.
func summaryTrailerLines(report *engine.Report) string {
	if report.Summary.Skipped == 0 {
		return ""
	}
	return fmt.Sprintf("Skipped: %d elements (missing volume or material data)\n",
		report.Summary.Skipped)
}
