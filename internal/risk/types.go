package risk

import (
	"time"

	"depscan/internal/scan"
)

// Level is the derived risk classification of a dependency or project.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Urgency classifies how soon a risky dependency should be dealt with.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyPlanned   Urgency = "planned"
)

// Factor is one weighted heuristic contribution to a dependency score.
// Values are 0-100; the five factor weights sum to 1.0.
type Factor struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// Score is the aggregate 0-100 risk score with its contributing factors
// retained for explainability.
type Score struct {
	Value   float64  `json:"score"`
	Level   Level    `json:"level"`
	Factors []Factor `json:"factors"`
}

// DependencyRisk pairs a scanned dependency with its score.
type DependencyRisk struct {
	Dependency   scan.Dependency `json:"dependency"`
	Score        Score           `json:"risk"`
	SuggestedFix string          `json:"suggestedFix,omitempty"`
	Urgency      Urgency         `json:"urgency"`
}

// SuggestedFix is one ranked remediation entry.
type SuggestedFix struct {
	PackageName      string        `json:"packageName"`
	CurrentVersion   string        `json:"currentVersion"`
	SuggestedVersion string        `json:"suggestedVersion"`
	Reason           string        `json:"reason"`
	Priority         scan.Severity `json:"priority"`
}

// Summary aggregates project-level risk.
type Summary struct {
	TotalDependencies int     `json:"totalDependencies"`
	HighCount         int     `json:"highRisk"`
	MediumCount       int     `json:"mediumRisk"`
	LowCount          int     `json:"lowRisk"`
	OverallLevel      Level   `json:"overallRiskLevel"`
	BlockProbability  float64 `json:"blockProbability"`
}

// Prediction is the full risk assessment for one scan. The three tier
// lists partition the scanned dependency set exactly.
type Prediction struct {
	Timestamp      time.Time        `json:"timestamp"`
	Project        string           `json:"project"`
	Summary        Summary          `json:"summary"`
	HighRisk       []DependencyRisk `json:"highRisk"`
	MediumRisk     []DependencyRisk `json:"mediumRisk"`
	LowRisk        []DependencyRisk `json:"lowRisk"`
	SuggestedFixes []SuggestedFix   `json:"suggestedFixes"`
}
