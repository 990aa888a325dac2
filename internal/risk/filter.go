package risk

import "depscan/internal/scan"

// DefaultSeverities is the filter applied when the caller specifies none.
var DefaultSeverities = map[scan.Severity]bool{
	scan.SeverityHigh:     true,
	scan.SeverityCritical: true,
}

// Filter projects a prediction down to the entries relevant to the
// requested severity set. A dependency survives when it carries at least
// one vulnerability in the set or its own risk level is high; a suggested
// fix survives when its priority is in the set and is high or critical.
// The projection is pure and idempotent; the input is not modified.
func Filter(pred *Prediction, severities map[scan.Severity]bool) *Prediction {
	if len(severities) == 0 {
		severities = DefaultSeverities
	}

	out := &Prediction{
		Timestamp:  pred.Timestamp,
		Project:    pred.Project,
		Summary:    pred.Summary,
		HighRisk:   filterRisks(pred.HighRisk, severities),
		MediumRisk: filterRisks(pred.MediumRisk, severities),
		LowRisk:    filterRisks(pred.LowRisk, severities),
	}

	for _, fix := range pred.SuggestedFixes {
		if !severities[fix.Priority] {
			continue
		}
		if fix.Priority != scan.SeverityCritical && fix.Priority != scan.SeverityHigh {
			continue
		}
		out.SuggestedFixes = append(out.SuggestedFixes, fix)
	}
	return out
}

func filterRisks(risks []DependencyRisk, severities map[scan.Severity]bool) []DependencyRisk {
	var kept []DependencyRisk
	for _, dr := range risks {
		if dr.Score.Level == LevelHigh || hasSeverityIn(dr.Dependency.Vulnerabilities, severities) {
			kept = append(kept, dr)
		}
	}
	return kept
}

func hasSeverityIn(vulns []scan.Vulnerability, severities map[scan.Severity]bool) bool {
	for _, v := range vulns {
		if severities[v.Severity] {
			return true
		}
	}
	return false
}
