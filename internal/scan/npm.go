package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// npmLockParser reads package-lock.json. Lockfile versions 2 and 3 carry a
// flat "packages" map keyed by install path; version 1 nests everything
// under "dependencies".
type npmLockParser struct{}

type npmLock struct {
	LockfileVersion int                       `json:"lockfileVersion"`
	Packages        map[string]npmLockPackage `json:"packages"`
	Dependencies    map[string]npmLockDep     `json:"dependencies"`
}

type npmLockPackage struct {
	Version string `json:"version"`
	Link    bool   `json:"link"`
}

type npmLockDep struct {
	Version      string                `json:"version"`
	Dependencies map[string]npmLockDep `json:"dependencies"`
}

func (p *npmLockParser) Parse(path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lock npmLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("malformed package-lock.json: %w", err)
	}

	if len(lock.Packages) > 0 {
		return p.fromPackages(lock.Packages), nil
	}
	if len(lock.Dependencies) > 0 {
		var deps []Dependency
		walkNpmDeps(lock.Dependencies, 0, &deps)
		return deps, nil
	}
	return nil, fmt.Errorf("package-lock.json has no packages or dependencies section")
}

func (p *npmLockParser) fromPackages(packages map[string]npmLockPackage) []Dependency {
	var deps []Dependency
	for installPath, pkg := range packages {
		// The "" key is the root project itself; links point at
		// workspace folders, not registry packages.
		if installPath == "" || pkg.Link || pkg.Version == "" {
			continue
		}
		name, depth, ok := splitNpmInstallPath(installPath)
		if !ok {
			continue
		}
		deps = append(deps, Dependency{
			Name:    name,
			Version: pkg.Version,
			Depth:   depth,
		})
	}
	return deps
}

// splitNpmInstallPath turns "node_modules/a/node_modules/@s/b" into the leaf
// package name and its nesting depth (0 for top-level installs).
func splitNpmInstallPath(installPath string) (name string, depth int, ok bool) {
	const marker = "node_modules/"
	idx := strings.LastIndex(installPath, marker)
	if idx < 0 {
		return "", 0, false
	}
	name = installPath[idx+len(marker):]
	if name == "" {
		return "", 0, false
	}
	depth = strings.Count(installPath, marker) - 1
	return name, depth, true
}

func walkNpmDeps(m map[string]npmLockDep, depth int, out *[]Dependency) {
	for name, d := range m {
		if d.Version != "" {
			*out = append(*out, Dependency{Name: name, Version: d.Version, Depth: depth})
		}
		if len(d.Dependencies) > 0 {
			walkNpmDeps(d.Dependencies, depth+1, out)
		}
	}
}
