package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"depscan/internal/risk"
	"depscan/internal/scan"
)

var levelStyles = map[risk.Level]lipgloss.Style{
	risk.LevelHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	risk.LevelMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	risk.LevelLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
}

// RenderTable writes the human-readable report. Same content as the JSON
// document, shaped for a terminal.
func RenderTable(w io.Writer, pred *risk.Prediction) {
	fmt.Fprintf(w, "Dependency risk report for %s\n", pred.Project)
	fmt.Fprintf(w, "Scanned %s\n\n", pred.Timestamp.Format("2006-01-02 15:04:05 MST"))

	s := pred.Summary
	fmt.Fprintf(w, "Dependencies: %d total, %d high / %d medium / %d low risk\n",
		s.TotalDependencies, s.HighCount, s.MediumCount, s.LowCount)
	fmt.Fprintf(w, "Overall risk: %s (block probability %.2f)\n\n",
		renderLevel(s.OverallLevel), s.BlockProbability)

	risks := append(append([]risk.DependencyRisk{}, pred.HighRisk...), pred.MediumRisk...)
	if len(risks) == 0 {
		fmt.Fprintln(w, "No dependencies matched the severity filter.")
	} else {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Package", "Version", "Score", "Level", "Worst Finding", "Fix"})
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		table.SetHeaderLine(false)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetTablePadding("  ")
		table.SetNoWhiteSpace(true)

		for _, dr := range risks {
			table.Append([]string{
				dr.Dependency.Name,
				dr.Dependency.Version,
				fmt.Sprintf("%.1f", dr.Score.Value),
				renderLevel(dr.Score.Level),
				worstFinding(dr.Dependency.Vulnerabilities),
				dr.SuggestedFix,
			})
		}
		table.Render()
	}

	if len(pred.SuggestedFixes) > 0 {
		fmt.Fprintln(w, "\nSuggested fixes:")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Package", "Current", "Suggested", "Priority", "Reason"})
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		table.SetHeaderLine(false)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetTablePadding("  ")
		table.SetNoWhiteSpace(true)

		for _, fix := range pred.SuggestedFixes {
			table.Append([]string{
				fix.PackageName,
				fix.CurrentVersion,
				fix.SuggestedVersion,
				string(fix.Priority),
				fix.Reason,
			})
		}
		table.Render()
	}
}

func renderLevel(level risk.Level) string {
	if style, ok := levelStyles[level]; ok {
		return style.Render(string(level))
	}
	return string(level)
}

func worstFinding(vulns []scan.Vulnerability) string {
	var worst *scan.Vulnerability
	for i := range vulns {
		if worst == nil || vulns[i].Severity.Rank() > worst.Severity.Rank() {
			worst = &vulns[i]
		}
	}
	if worst == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", worst.Title, worst.Severity)
}
