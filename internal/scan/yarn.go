package scan

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// yarnLockParser handles the classic yarn.lock format: entry headers are
// unindented comma-separated selector lists ending in ":", followed by
// indented attribute lines. The file is not JSON or YAML, so it gets a
// small hand-rolled line parser.
//
//	lodash@^4.17.15, lodash@^4.17.20:
//	  version "4.17.21"
//
// yarn.lock is flat: it records no nesting, so every package resolves at
// depth 1 here and direct entries are reclassified against the manifest.
type yarnLockParser struct{}

func (p *yarnLockParser) Parse(path string) ([]Dependency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var deps []Dependency
	var currentName string
	sawEntry := false

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.HasPrefix(line, " ") {
			// Entry header.
			if !strings.HasSuffix(strings.TrimSpace(line), ":") {
				return nil, fmt.Errorf("malformed yarn.lock entry header: %q", line)
			}
			name, err := yarnEntryName(line)
			if err != nil {
				return nil, err
			}
			currentName = name
			sawEntry = true
			continue
		}

		trimmed := strings.TrimSpace(line)
		if currentName != "" && strings.HasPrefix(trimmed, "version ") {
			version := strings.Trim(strings.TrimPrefix(trimmed, "version "), `"`)
			deps = append(deps, Dependency{
				Name:    currentName,
				Version: version,
				Depth:   1,
			})
			currentName = ""
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawEntry {
		return nil, fmt.Errorf("yarn.lock contains no entries")
	}
	return deps, nil
}

// yarnEntryName extracts the package name from the first selector in an
// entry header, handling scoped packages where the name itself contains "@".
func yarnEntryName(header string) (string, error) {
	header = strings.TrimSuffix(strings.TrimSpace(header), ":")
	first := strings.TrimSpace(strings.Split(header, ",")[0])
	first = strings.Trim(first, `"`)

	at := strings.LastIndex(first, "@")
	if at <= 0 {
		// "@" at position 0 means a scoped name with no version
		// selector, which yarn does not emit.
		return "", fmt.Errorf("malformed yarn.lock selector: %q", first)
	}
	return first[:at], nil
}
