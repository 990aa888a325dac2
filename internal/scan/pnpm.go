package scan

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// pnpmLockParser reads the packages section of pnpm-lock.yaml. Only the
// package keys are needed, and their shape is stable across lockfile
// versions, so a line-oriented parser is enough:
//
//	packages:
//	  /lodash/4.17.21:          (v5)
//	  /lodash@4.17.21:          (v6)
//	  /@babel/core@7.23.2(supports-color@8.1.1):
//
// Like yarn.lock the file records a flat package set, so everything parses
// at depth 1 and direct entries are reclassified against the manifest.
type pnpmLockParser struct{}

func (p *pnpmLockParser) Parse(path string) ([]Dependency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var deps []Dependency
	inPackages := false
	sawSection := false

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		// Top-level section headers are unindented.
		if !strings.HasPrefix(line, " ") {
			inPackages = trimmed == "packages:"
			if inPackages {
				sawSection = true
			}
			continue
		}
		if !inPackages {
			continue
		}

		// Package keys sit at the first indent level and end with ":".
		// Deeper-indented lines are per-package attributes.
		if strings.HasPrefix(line, "    ") || !strings.HasSuffix(trimmed, ":") {
			continue
		}
		key := strings.Trim(strings.TrimSuffix(trimmed, ":"), `'"`)
		name, version, ok := splitPnpmKey(key)
		if !ok {
			return nil, fmt.Errorf("malformed pnpm-lock.yaml package key: %q", key)
		}
		deps = append(deps, Dependency{Name: name, Version: version, Depth: 1})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawSection {
		return nil, fmt.Errorf("pnpm-lock.yaml has no packages section")
	}
	return deps, nil
}

func splitPnpmKey(key string) (name, version string, ok bool) {
	key = strings.TrimPrefix(key, "/")
	// Peer dependency suffixes like (react@18.2.0) are not part of the
	// resolved version.
	if i := strings.Index(key, "("); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", "", false
	}

	// v6+ keys separate name and version with "@"; the name of a scoped
	// package starts with "@", so split on the last occurrence.
	if at := strings.LastIndex(key, "@"); at > 0 {
		return key[:at], key[at+1:], true
	}
	// v5 keys use "/" between name and version.
	if slash := strings.LastIndex(key, "/"); slash > 0 {
		return key[:slash], key[slash+1:], true
	}
	return "", "", false
}
