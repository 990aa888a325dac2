package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Vulnerability reports on large trees can run to tens of megabytes, so the
// capture buffer is pre-grown instead of letting it reallocate its way up.
const outputBufferSize = 32 << 20

// ErrScannerUnavailable marks the case where the snyk binary could not be
// executed at all, as opposed to running and reporting findings.
var ErrScannerUnavailable = errors.New("vulnerability scanner unavailable")

// commandRunner abstracts subprocess execution so tests can inject canned
// scanner output.
type commandRunner interface {
	// Run executes the tool in dir and returns captured stdout, the
	// process exit code, and an error only when the process could not
	// be started or was killed.
	Run(ctx context.Context, dir string, env []string, args ...string) ([]byte, int, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, env []string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, "snyk", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	stdout.Grow(outputBufferSize)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			// The tool ran to completion; snyk signals "found
			// vulnerabilities" with a non-zero exit code.
			return stdout.Bytes(), exitErr.ExitCode(), nil
		}
		if ctx.Err() != nil {
			return nil, -1, fmt.Errorf("scanner timed out: %w", ctx.Err())
		}
		return nil, -1, err
	}
	return stdout.Bytes(), 0, nil
}

// SnykCLI invokes the snyk command line tool against a project directory
// and normalizes its JSON output.
type SnykCLI struct {
	Token   string
	Timeout time.Duration

	runner commandRunner
}

// Report is the adapter result for a completed tool run. ExitCode is
// non-zero whenever the tool found vulnerabilities; that is the expected
// outcome, not a failure.
type Report struct {
	Vulnerabilities []Vulnerability
	ExitCode        int
}

// NewSnykCLI builds the adapter. An empty token is allowed; snyk then runs
// with whatever ambient authentication it has, which usually means none.
func NewSnykCLI(token string, timeout time.Duration) *SnykCLI {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &SnykCLI{Token: token, Timeout: timeout, runner: execRunner{}}
}

// Test runs "snyk test --json" in dir. A non-zero exit is parsed like a
// success. The returned error wraps ErrScannerUnavailable when the tool
// could not run; a distinct parse error covers unusable output on either
// exit path. Callers treat both as "no vulnerability data available".
func (c *SnykCLI) Test(ctx context.Context, dir string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var env []string
	if c.Token != "" {
		env = append(env, "SNYK_TOKEN="+c.Token)
	}

	out, exitCode, err := c.runner.Run(ctx, dir, env, "test", "--json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScannerUnavailable, err)
	}

	vulns, err := parseSnykOutput(out)
	if err != nil {
		return nil, fmt.Errorf("cannot parse scanner output (exit code %d): %w", exitCode, err)
	}
	return &Report{Vulnerabilities: vulns, ExitCode: exitCode}, nil
}

type snykOutput struct {
	Ok              bool       `json:"ok"`
	ProjectName     string     `json:"projectName"`
	DependencyCount int        `json:"dependencyCount"`
	Vulnerabilities []snykVuln `json:"vulnerabilities"`
}

type snykVuln struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Severity    string   `json:"severity"`
	PackageName string   `json:"packageName"`
	Version     string   `json:"version"`
	FixedIn     []string `json:"fixedIn"`
	CVSSScore   float64  `json:"cvssScore"`
	Identifiers struct {
		CWE []string `json:"CWE"`
	} `json:"identifiers"`
	Exploit         string    `json:"exploit"`
	IsUpgradable    bool      `json:"isUpgradable"`
	IsPatchable     bool      `json:"isPatchable"`
	From            []string  `json:"from"`
	Description     string    `json:"description"`
	PublicationTime time.Time `json:"publicationTime"`
}

// parseSnykOutput accepts both the single-project object and the
// multi-project array snyk emits with --all-projects.
func parseSnykOutput(out []byte) ([]Vulnerability, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty output")
	}

	var results []snykOutput
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, err
		}
	} else {
		var single snykOutput
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		results = append(results, single)
	}

	var vulns []Vulnerability
	for _, res := range results {
		for _, v := range res.Vulnerabilities {
			vulns = append(vulns, normalizeSnykVuln(v))
		}
	}
	return vulns, nil
}

func normalizeSnykVuln(v snykVuln) Vulnerability {
	fixedIn := ""
	if len(v.FixedIn) > 0 {
		fixedIn = v.FixedIn[0]
	}
	return Vulnerability{
		ID:              v.ID,
		Title:           v.Title,
		Severity:        ParseSeverity(v.Severity),
		PackageName:     v.PackageName,
		PackageVersion:  v.Version,
		FixedIn:         fixedIn,
		CVSSScore:       v.CVSSScore,
		CWEs:            v.Identifiers.CWE,
		ExploitMaturity: v.Exploit,
		Upgradable:      v.IsUpgradable,
		Patchable:       v.IsPatchable,
		From:            v.From,
		Description:     v.Description,
		Published:       v.PublicationTime,
	}
}
