package scan

import "time"

// PackageManager identifies which lock file dialect a project uses.
type PackageManager string

const (
	Npm  PackageManager = "npm"
	Yarn PackageManager = "yarn"
	Pnpm PackageManager = "pnpm"
)

// PackageManagers lists the supported dialects in default-preference order.
var PackageManagers = []PackageManager{Npm, Yarn, Pnpm}

// Dependency is one resolved package from the project's dependency tree.
// It is built by the lockfile parser and enriched once with vulnerability
// associations; after enrichment it is never mutated.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Direct  bool   `json:"direct"`
	// Depth is the nesting depth in the dependency tree. 0 for direct
	// dependencies, >=1 for transitive ones.
	Depth int `json:"depth"`

	// Registry metadata is best effort and usually absent.
	LastPublished   *time.Time `json:"lastPublished,omitempty"`
	WeeklyDownloads *int64     `json:"weeklyDownloads,omitempty"`
	Maintainers     *int       `json:"maintainers,omitempty"`

	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
	HasKnownVulns   bool            `json:"hasKnownVulnerabilities"`
}

// Vulnerability is a canonical finding normalized from the scanner output.
type Vulnerability struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Severity        Severity  `json:"severity"`
	PackageName     string    `json:"packageName"`
	PackageVersion  string    `json:"packageVersion"`
	FixedIn         string    `json:"fixedIn,omitempty"`
	CVSSScore       float64   `json:"cvssScore,omitempty"`
	CWEs            []string  `json:"cwes,omitempty"`
	ExploitMaturity string    `json:"exploitMaturity,omitempty"`
	Upgradable      bool      `json:"upgradable"`
	Patchable       bool      `json:"patchable"`
	// From is the introduction path: the chain of package names through
	// which the vulnerable package entered the tree.
	From        []string  `json:"from,omitempty"`
	Description string    `json:"description,omitempty"`
	Published   time.Time `json:"published,omitzero"`
}

// Result is the unified output of one scan: the parsed dependency tree
// joined with the vulnerability findings. Read-only after construction.
type Result struct {
	Timestamp              time.Time       `json:"timestamp"`
	Project                string          `json:"project"`
	PackageManager         PackageManager  `json:"packageManager"`
	TotalDependencies      int             `json:"totalDependencies"`
	DirectDependencies     int             `json:"directDependencies"`
	TransitiveDependencies int             `json:"transitiveDependencies"`
	Vulnerabilities        []Vulnerability `json:"vulnerabilities"`
	Dependencies           []Dependency    `json:"dependencies"`
}

// ParsePackageManager validates a CLI-supplied package manager name.
func ParsePackageManager(s string) (PackageManager, bool) {
	switch PackageManager(s) {
	case Npm, Yarn, Pnpm:
		return PackageManager(s), true
	}
	return "", false
}
