package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"depscan/internal/risk"
	"depscan/internal/scan"
)

// Document is the canonical JSON report shape. It flattens the prediction
// into the fields downstream tooling consumes; parsing it back restores
// the summary counts exactly.
type Document struct {
	Timestamp      time.Time           `json:"timestamp"`
	Project        string              `json:"project"`
	Summary        risk.Summary        `json:"summary"`
	HighRisk       []DependencyEntry   `json:"highRiskDependencies"`
	SuggestedFixes []risk.SuggestedFix `json:"suggestedFixes"`
}

// DependencyEntry is one flattened high-risk dependency.
type DependencyEntry struct {
	Name            string                 `json:"name"`
	Version         string                 `json:"version"`
	Score           float64                `json:"score"`
	Level           risk.Level             `json:"level"`
	SuggestedFix    string                 `json:"suggestedFix,omitempty"`
	Vulnerabilities []VulnerabilitySummary `json:"vulnerabilities,omitempty"`
}

// VulnerabilitySummary is the abbreviated per-vulnerability record carried
// in the report.
type VulnerabilitySummary struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Severity scan.Severity `json:"severity"`
	FixedIn  string        `json:"fixedIn,omitempty"`
}

// NewDocument flattens a prediction into the report shape.
func NewDocument(pred *risk.Prediction) Document {
	doc := Document{
		Timestamp:      pred.Timestamp,
		Project:        pred.Project,
		Summary:        pred.Summary,
		SuggestedFixes: pred.SuggestedFixes,
	}
	for _, dr := range pred.HighRisk {
		entry := DependencyEntry{
			Name:         dr.Dependency.Name,
			Version:      dr.Dependency.Version,
			Score:        dr.Score.Value,
			Level:        dr.Score.Level,
			SuggestedFix: dr.SuggestedFix,
		}
		for _, v := range dr.Dependency.Vulnerabilities {
			entry.Vulnerabilities = append(entry.Vulnerabilities, VulnerabilitySummary{
				ID:       v.ID,
				Title:    v.Title,
				Severity: v.Severity,
				FixedIn:  v.FixedIn,
			})
		}
		doc.HighRisk = append(doc.HighRisk, entry)
	}
	return doc
}

// RenderJSON serializes the prediction into the canonical report document.
func RenderJSON(pred *risk.Prediction) ([]byte, error) {
	return json.MarshalIndent(NewDocument(pred), "", "  ")
}

// WriteJSON renders the report and writes it to path.
func WriteJSON(pred *risk.Prediction, path string) error {
	data, err := RenderJSON(pred)
	if err != nil {
		return fmt.Errorf("cannot render report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("cannot write report: %w", err)
	}
	return nil
}
