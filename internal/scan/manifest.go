package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// lockfileParser resolves the full dependency tree from one lock file
// dialect. Parsers return every resolved package with its nesting depth;
// direct/transitive classification happens afterwards against the manifest.
type lockfileParser interface {
	Parse(path string) ([]Dependency, error)
}

const manifestFile = "package.json"

var lockfiles = map[PackageManager]struct {
	name   string
	parser lockfileParser
}{
	Npm:  {"package-lock.json", &npmLockParser{}},
	Yarn: {"yarn.lock", &yarnLockParser{}},
	Pnpm: {"pnpm-lock.yaml", &pnpmLockParser{}},
}

type packageManifest struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ParseDependencies reads the project manifest and lock file under dir and
// returns the flat dependency list. A missing manifest is fatal. A missing
// or unparseable lock file degrades to manifest-only data (direct
// dependencies with range-cleaned versions, depth 0) and reports a warning.
func ParseDependencies(dir string, kind PackageManager) ([]Dependency, []string, error) {
	manifest, err := readManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, nil, err
	}

	direct := make(map[string]string)
	for name, rng := range manifest.Dependencies {
		direct[name] = rng
	}
	for name, rng := range manifest.DevDependencies {
		direct[name] = rng
	}

	lf, ok := lockfiles[kind]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported package manager %q", kind)
	}

	lockPath := filepath.Join(dir, lf.name)
	resolved, err := lf.parser.Parse(lockPath)
	if err != nil {
		warn := fmt.Sprintf("cannot read %s (%v): continuing with direct dependencies only", lf.name, err)
		return directOnly(direct), []string{warn}, nil
	}

	return classify(resolved, direct), nil, nil
}

func readManifest(path string) (*packageManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no %s found in project directory", manifestFile)
		}
		return nil, fmt.Errorf("cannot read %s: %w", manifestFile, err)
	}
	defer f.Close()

	var m packageManifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", manifestFile, err)
	}
	return &m, nil
}

// directOnly builds the degraded dependency list when no lock file is
// usable: every manifest entry, depth 0, version range stripped to its
// lower bound.
func directOnly(direct map[string]string) []Dependency {
	deps := make([]Dependency, 0, len(direct))
	for name, rng := range direct {
		deps = append(deps, Dependency{
			Name:    name,
			Version: cleanVersionRange(rng),
			Direct:  true,
			Depth:   0,
		})
	}
	sortDependencies(deps)
	return deps
}

// classify marks resolved entries direct or transitive against the manifest
// map and enforces the depth invariant: depth 0 exactly for direct entries.
// Hoisted transitive packages that a lock file reports at the top level are
// pushed to depth 1.
func classify(resolved []Dependency, direct map[string]string) []Dependency {
	// The same name@version pair can appear at several tree positions
	// (npm deduplication). Keep the shallowest occurrence.
	seen := make(map[string]int)
	var deps []Dependency
	for _, d := range resolved {
		if _, ok := direct[d.Name]; ok {
			d.Direct = true
			d.Depth = 0
		} else {
			d.Direct = false
			if d.Depth < 1 {
				d.Depth = 1
			}
		}
		key := d.Name + "@" + d.Version
		if i, ok := seen[key]; ok {
			if d.Depth < deps[i].Depth {
				deps[i] = d
			}
			continue
		}
		seen[key] = len(deps)
		deps = append(deps, d)
	}
	sortDependencies(deps)
	return deps
}

func sortDependencies(deps []Dependency) {
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Name != deps[j].Name {
			return deps[i].Name < deps[j].Name
		}
		return deps[i].Version < deps[j].Version
	})
}

// cleanVersionRange strips common npm range operators so a bare version
// remains. Precise resolution needs the lock file; this is the degraded path.
func cleanVersionRange(v string) string {
	v = strings.TrimSpace(v)
	for _, prefix := range []string{">=", "<=", "^", "~", ">", "<", "="} {
		v = strings.TrimPrefix(v, prefix)
	}
	return strings.TrimSpace(v)
}
