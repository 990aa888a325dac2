package scan

import "time"

// Enrich joins vulnerability findings onto the dependency list by package
// name. Pure and deterministic; the input slices are not modified.
func Enrich(deps []Dependency, vulns []Vulnerability) []Dependency {
	byPackage := make(map[string][]Vulnerability)
	for _, v := range vulns {
		byPackage[v.PackageName] = append(byPackage[v.PackageName], v)
	}

	enriched := make([]Dependency, len(deps))
	for i, d := range deps {
		d.Vulnerabilities = byPackage[d.Name]
		d.HasKnownVulns = len(d.Vulnerabilities) > 0
		enriched[i] = d
	}
	return enriched
}

// NewResult assembles the unified scan result for one pipeline run.
func NewResult(project string, kind PackageManager, deps []Dependency, vulns []Vulnerability) *Result {
	direct := 0
	for _, d := range deps {
		if d.Direct {
			direct++
		}
	}
	return &Result{
		Timestamp:              time.Now().UTC(),
		Project:                project,
		PackageManager:         kind,
		TotalDependencies:      len(deps),
		DirectDependencies:     direct,
		TransitiveDependencies: len(deps) - direct,
		Vulnerabilities:        vulns,
		Dependencies:           Enrich(deps, vulns),
	}
}
