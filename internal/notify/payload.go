package notify

import (
	"fmt"
	"strings"
	"time"

	"depscan/internal/risk"
	"depscan/internal/scan"
)

// Display limits for the notification card. Chat messages have hard size
// ceilings, so each section elides past these.
const (
	maxEntriesPerTier = 5
	maxFixes          = 5
	maxCWEs           = 3
	maxPathHops       = 3
	maxDescription    = 200
)

// Payload is the flat intermediate form of a notification: a header, one
// section per non-empty risk tier, the suggested fixes, and a closing
// status line. Built fresh per send, rendered into the wire format by the
// notifier.
type Payload struct {
	Title     string
	Project   string
	Timestamp time.Time
	// Urgent is true when any high-risk dependency exists; it drives the
	// card's color cue.
	Urgent     bool
	Tiers      []TierSection
	Fixes      []FixLine
	MoreFixes  int
	StatusLine string
}

// TierSection lists the capped entries of one risk tier.
type TierSection struct {
	Level   risk.Level
	Total   int
	Entries []Entry
	// Elided is the "...and N more" count when Total exceeds the cap.
	Elided int
}

// Entry is the per-dependency detail block.
type Entry struct {
	Package      string // name@version
	Score        float64
	Urgency      risk.Urgency
	WorstTitle   string
	WorstSev     scan.Severity
	CVSS         float64
	CWEs         []string
	Description  string
	Path         []string
	PathElided   bool
	Upgradable   bool
	Patchable    bool
	SuggestedFix string
}

// FixLine is one rendered suggested-fix row.
type FixLine struct {
	Package  string
	From     string
	To       string
	Priority scan.Severity
}

// BuildPayload assembles the notification content from a prediction.
func BuildPayload(pred *risk.Prediction) *Payload {
	p := &Payload{
		Title:     "Dependency risk report",
		Project:   pred.Project,
		Timestamp: pred.Timestamp,
		Urgent:    len(pred.HighRisk) > 0,
	}

	for _, tier := range []struct {
		level risk.Level
		risks []risk.DependencyRisk
	}{
		{risk.LevelHigh, pred.HighRisk},
		{risk.LevelMedium, pred.MediumRisk},
	} {
		if len(tier.risks) == 0 {
			continue
		}
		section := TierSection{Level: tier.level, Total: len(tier.risks)}
		for i, dr := range tier.risks {
			if i == maxEntriesPerTier {
				section.Elided = len(tier.risks) - maxEntriesPerTier
				break
			}
			section.Entries = append(section.Entries, buildEntry(dr))
		}
		p.Tiers = append(p.Tiers, section)
	}

	for i, fix := range pred.SuggestedFixes {
		if i == maxFixes {
			p.MoreFixes = len(pred.SuggestedFixes) - maxFixes
			break
		}
		p.Fixes = append(p.Fixes, FixLine{
			Package:  fix.PackageName,
			From:     fix.CurrentVersion,
			To:       fix.SuggestedVersion,
			Priority: fix.Priority,
		})
	}

	switch {
	case len(pred.HighRisk) > 0:
		p.StatusLine = "Fix high-risk dependencies before the next deployment."
	case len(pred.MediumRisk) > 0:
		p.StatusLine = "Review medium-risk dependencies before they escalate."
	default:
		p.StatusLine = "No elevated dependency risk. Ready for deployment."
	}
	return p
}

func buildEntry(dr risk.DependencyRisk) Entry {
	dep := dr.Dependency
	e := Entry{
		Package:      fmt.Sprintf("%s@%s", dep.Name, dep.Version),
		Score:        dr.Score.Value,
		Urgency:      dr.Urgency,
		SuggestedFix: dr.SuggestedFix,
	}

	var worst *scan.Vulnerability
	for i := range dep.Vulnerabilities {
		if worst == nil || dep.Vulnerabilities[i].Severity.Rank() > worst.Severity.Rank() {
			worst = &dep.Vulnerabilities[i]
		}
	}
	if worst == nil {
		return e
	}

	e.WorstTitle = worst.Title
	e.WorstSev = worst.Severity
	e.CVSS = worst.CVSSScore
	e.Upgradable = worst.Upgradable
	e.Patchable = worst.Patchable
	e.Description = truncate(worst.Description, maxDescription)

	e.CWEs = worst.CWEs
	if len(e.CWEs) > maxCWEs {
		e.CWEs = e.CWEs[:maxCWEs]
	}

	e.Path = worst.From
	if len(e.Path) > maxPathHops {
		e.Path = e.Path[:maxPathHops]
		e.PathElided = true
	}
	return e
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
