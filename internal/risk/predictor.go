package risk

import (
	"fmt"
	"sort"

	goversion "github.com/hashicorp/go-version"

	"depscan/internal/scan"
)

// Factor weights. They must sum to 1.0; changing them changes every score.
const (
	weightFrequency = 0.35
	weightDepth     = 0.20
	weightHighRisk  = 0.25
	weightMaturity  = 0.10
	weightImpact    = 0.10
)

// Level thresholds are fixed constants for score compatibility: >=60 is
// high, >=30 is medium, below 30 is low.
const (
	thresholdHigh   = 60.0
	thresholdMedium = 30.0
)

// Per-vulnerability severity weights feeding the frequency factor.
var severityWeight = map[scan.Severity]float64{
	scan.SeverityCritical: 40,
	scan.SeverityHigh:     30,
	scan.SeverityMedium:   15,
	scan.SeverityLow:      5,
}

// highRiskPackages lists npm packages with a documented history of security
// incidents (hijacks, malicious releases, repeated critical CVEs).
var highRiskPackages = map[string]bool{
	"lodash":          true,
	"event-stream":    true,
	"flatmap-stream":  true,
	"eslint-scope":    true,
	"ua-parser-js":    true,
	"coa":             true,
	"rc":              true,
	"node-ipc":        true,
	"colors":          true,
	"faker":           true,
	"minimist":        true,
	"request":         true,
	"bootstrap-sass":  true,
	"getcookies":      true,
	"left-pad":        true,
}

const highRiskMembershipValue = 80

// Predictor scores dependencies and assembles the project prediction.
type Predictor struct {
	highRisk map[string]bool
}

func NewPredictor() *Predictor {
	return &Predictor{highRisk: highRiskPackages}
}

// Predict scores every dependency of the scan result and buckets it into
// exactly one risk tier.
func (p *Predictor) Predict(res *scan.Result) *Prediction {
	pred := &Prediction{
		Timestamp: res.Timestamp,
		Project:   res.Project,
	}

	for _, dep := range res.Dependencies {
		dr := DependencyRisk{
			Dependency:   dep,
			Score:        p.scoreDependency(dep),
			SuggestedFix: suggestedFixText(dep),
		}
		dr.Urgency = urgencyFor(dr)

		switch dr.Score.Level {
		case LevelHigh:
			pred.HighRisk = append(pred.HighRisk, dr)
		case LevelMedium:
			pred.MediumRisk = append(pred.MediumRisk, dr)
		default:
			pred.LowRisk = append(pred.LowRisk, dr)
		}
	}

	sortByScore(pred.HighRisk)
	sortByScore(pred.MediumRisk)
	sortByScore(pred.LowRisk)

	pred.Summary = summarize(pred)
	pred.SuggestedFixes = suggestFixes(res.Dependencies)
	return pred
}

// scoreDependency computes the five weighted factors. The aggregate is
// clamped to [0,100] even though the chosen factor values cannot exceed it.
func (p *Predictor) scoreDependency(dep scan.Dependency) Score {
	factors := []Factor{
		p.frequencyFactor(dep),
		p.depthFactor(dep),
		p.membershipFactor(dep),
		p.maturityFactor(dep),
		p.impactFactor(dep),
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weight * f.Value
	}
	return Score{
		Value:   clamp(total, 0, 100),
		Level:   LevelFor(clamp(total, 0, 100)),
		Factors: factors,
	}
}

// LevelFor maps a score to its tier using the fixed 30/60 thresholds.
func LevelFor(score float64) Level {
	switch {
	case score >= thresholdHigh:
		return LevelHigh
	case score >= thresholdMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

func (p *Predictor) frequencyFactor(dep scan.Dependency) Factor {
	value := 0.0
	for _, v := range dep.Vulnerabilities {
		value += severityWeight[v.Severity]
	}
	return Factor{
		Name:        "vulnerability-frequency",
		Weight:      weightFrequency,
		Value:       clamp(value, 0, 100),
		Description: fmt.Sprintf("%d known vulnerabilities", len(dep.Vulnerabilities)),
	}
}

func (p *Predictor) depthFactor(dep scan.Dependency) Factor {
	return Factor{
		Name:        "transitive-depth",
		Weight:      weightDepth,
		Value:       clamp(float64(dep.Depth)*10, 0, 100),
		Description: fmt.Sprintf("resolved at depth %d", dep.Depth),
	}
}

func (p *Predictor) membershipFactor(dep scan.Dependency) Factor {
	value := 0.0
	desc := "no known incident history"
	if p.highRisk[dep.Name] {
		value = highRiskMembershipValue
		desc = "package has a history of security incidents"
	}
	return Factor{
		Name:        "high-risk-membership",
		Weight:      weightHighRisk,
		Value:       value,
		Description: desc,
	}
}

// maturityFactor penalizes young release lines: 0.x versions churn and
// break, mature major lines rarely do. Major 0 scores 70, major 1 scores
// 40, major 2 scores 20, anything later 0. Unparseable versions score 0.
func (p *Predictor) maturityFactor(dep scan.Dependency) Factor {
	value := 0.0
	desc := "version metadata unavailable"
	if v, err := goversion.NewVersion(dep.Version); err == nil {
		switch major := v.Segments()[0]; {
		case major == 0:
			value = 70
			desc = "pre-1.0 release line"
		case major == 1:
			value = 40
			desc = "first stable major"
		case major == 2:
			value = 20
			desc = "second major"
		default:
			desc = "mature major version"
		}
	}
	return Factor{
		Name:        "release-maturity",
		Weight:      weightMaturity,
		Value:       value,
		Description: desc,
	}
}

// impactFactor reflects remediation effort, not exposure: a direct
// dependency is one manifest edit away, a transitive one is not.
func (p *Predictor) impactFactor(dep scan.Dependency) Factor {
	value := 20.0
	desc := "transitive dependency, harder to remediate"
	if dep.Direct {
		value = 10
		desc = "direct dependency, simple to remediate"
	}
	return Factor{
		Name:        "direct-impact",
		Weight:      weightImpact,
		Value:       value,
		Description: desc,
	}
}

func urgencyFor(dr DependencyRisk) Urgency {
	if dr.Score.Level == LevelHigh || scan.MaxSeverity(dr.Dependency.Vulnerabilities) == scan.SeverityCritical {
		return UrgencyImmediate
	}
	if dr.Score.Level == LevelMedium {
		return UrgencySoon
	}
	return UrgencyPlanned
}

func suggestedFixText(dep scan.Dependency) string {
	for _, v := range dep.Vulnerabilities {
		if v.FixedIn != "" {
			return fmt.Sprintf("upgrade to %s", v.FixedIn)
		}
	}
	return ""
}

func summarize(pred *Prediction) Summary {
	total := len(pred.HighRisk) + len(pred.MediumRisk) + len(pred.LowRisk)

	overall := LevelLow
	if len(pred.MediumRisk) > 0 {
		overall = LevelMedium
	}
	if len(pred.HighRisk) > 0 {
		overall = LevelHigh
	}

	return Summary{
		TotalDependencies: total,
		HighCount:         len(pred.HighRisk),
		MediumCount:       len(pred.MediumRisk),
		LowCount:          len(pred.LowRisk),
		OverallLevel:      overall,
		BlockProbability:  blockProbability(len(pred.HighRisk), len(pred.MediumRisk), total),
	}
}

// blockProbability estimates how likely this dependency set is to block a
// deployment: the risky share of the tree, with high-risk entries weighted
// 0.9 and medium-risk 0.4, clamped to [0,1].
func blockProbability(high, medium, total int) float64 {
	if total == 0 {
		return 0
	}
	return clamp((0.9*float64(high)+0.4*float64(medium))/float64(total), 0, 1)
}

// suggestFixes emits one entry per dependency that has a vulnerability with
// a known fixed version, keeping only critical and high priorities and
// ranking them by priority then package name.
func suggestFixes(deps []scan.Dependency) []SuggestedFix {
	var fixes []SuggestedFix
	for _, dep := range deps {
		var fixedIn string
		for _, v := range dep.Vulnerabilities {
			if v.FixedIn != "" {
				fixedIn = v.FixedIn
				break
			}
		}
		if fixedIn == "" {
			continue
		}

		priority := scan.MaxSeverity(dep.Vulnerabilities)
		if priority != scan.SeverityCritical && priority != scan.SeverityHigh {
			continue
		}
		fixes = append(fixes, SuggestedFix{
			PackageName:      dep.Name,
			CurrentVersion:   dep.Version,
			SuggestedVersion: fixedIn,
			Reason:           fmt.Sprintf("fixes %d known vulnerabilities", len(dep.Vulnerabilities)),
			Priority:         priority,
		})
	}

	sort.SliceStable(fixes, func(i, j int) bool {
		if fixes[i].Priority != fixes[j].Priority {
			return fixes[i].Priority.Rank() > fixes[j].Priority.Rank()
		}
		return fixes[i].PackageName < fixes[j].PackageName
	})
	return fixes
}

func sortByScore(risks []DependencyRisk) {
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Score.Value > risks[j].Score.Value
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
