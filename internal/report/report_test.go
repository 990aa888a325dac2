package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depscan/internal/risk"
	"depscan/internal/scan"
)

func testPrediction() *risk.Prediction {
	return &risk.Prediction{
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Project:   "webshop",
		Summary: risk.Summary{
			TotalDependencies: 12,
			HighCount:         1,
			MediumCount:       3,
			LowCount:          8,
			OverallLevel:      risk.LevelHigh,
			BlockProbability:  0.18,
		},
		HighRisk: []risk.DependencyRisk{
			{
				Dependency: scan.Dependency{
					Name: "event-stream", Version: "3.3.6", Depth: 4,
					Vulnerabilities: []scan.Vulnerability{
						{ID: "V1", Title: "Malicious Package", Severity: scan.SeverityCritical, FixedIn: "4.0.0"},
					},
				},
				Score:        risk.Score{Value: 71.5, Level: risk.LevelHigh},
				SuggestedFix: "upgrade to 4.0.0",
				Urgency:      risk.UrgencyImmediate,
			},
		},
		SuggestedFixes: []risk.SuggestedFix{
			{PackageName: "event-stream", CurrentVersion: "3.3.6", SuggestedVersion: "4.0.0", Reason: "fixes 1 known vulnerabilities", Priority: scan.SeverityCritical},
		},
	}
}

func TestRenderJSON_RoundTripSummary(t *testing.T) {
	data, err := RenderJSON(testPrediction())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	want := testPrediction().Summary
	assert.Equal(t, want, doc.Summary)
	assert.Equal(t, "webshop", doc.Project)
	require.Len(t, doc.HighRisk, 1)
	entry := doc.HighRisk[0]
	assert.Equal(t, "event-stream", entry.Name)
	assert.Equal(t, "3.3.6", entry.Version)
	assert.Equal(t, 71.5, entry.Score)
	assert.Equal(t, risk.LevelHigh, entry.Level)
	assert.Equal(t, "upgrade to 4.0.0", entry.SuggestedFix)
	require.Len(t, entry.Vulnerabilities, 1)
	assert.Equal(t, "V1", entry.Vulnerabilities[0].ID)
	assert.Equal(t, scan.SeverityCritical, entry.Vulnerabilities[0].Severity)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(testPrediction(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 12, doc.Summary.TotalDependencies)
}

func TestWriteJSON_BadPath(t *testing.T) {
	err := WriteJSON(testPrediction(), filepath.Join(t.TempDir(), "missing", "report.json"))
	require.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, testPrediction())
	out := buf.String()

	assert.Contains(t, out, "webshop")
	assert.Contains(t, out, "event-stream")
	assert.Contains(t, out, "3.3.6")
	assert.Contains(t, out, "71.5")
	assert.Contains(t, out, "Malicious Package")
	assert.Contains(t, out, "upgrade to 4.0.0")
	assert.Contains(t, out, "Suggested fixes:")
	assert.Contains(t, out, "4.0.0")
}

func TestRenderTable_EmptyPrediction(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, &risk.Prediction{Project: "empty", Timestamp: time.Now()})
	assert.Contains(t, buf.String(), "No dependencies matched the severity filter.")
}
