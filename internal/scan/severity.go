package scan

import (
	"fmt"
	"strings"
)

// Severity is the scanner-assigned severity of a vulnerability.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// ParseSeverity normalizes a raw severity string. Unknown values map to low
// rather than failing: scanner output is not under our control.
func ParseSeverity(s string) Severity {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ParseSeverityStrict is the validating variant used for CLI input.
func ParseSeverityStrict(s string) (Severity, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	}
	return "", fmt.Errorf("invalid severity %q (expected low, medium, high or critical)", s)
}

// ParseSeveritySet parses a comma-separated severity list, e.g. "high,critical".
func ParseSeveritySet(s string) (map[Severity]bool, error) {
	set := make(map[Severity]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sev, err := ParseSeverityStrict(part)
		if err != nil {
			return nil, err
		}
		set[sev] = true
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("empty severity filter %q", s)
	}
	return set, nil
}

// Rank orders severities so that critical > high > medium > low.
func (s Severity) Rank() int {
	return severityRank[s]
}

// MaxSeverity returns the most severe entry among vulns, or "" when empty.
func MaxSeverity(vulns []Vulnerability) Severity {
	var max Severity
	for _, v := range vulns {
		if v.Severity.Rank() > max.Rank() {
			max = v.Severity
		}
	}
	return max
}
