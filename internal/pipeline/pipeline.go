package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"depscan/internal/report"
	"depscan/internal/risk"
	"depscan/internal/scan"
	"depscan/internal/telemetry"
)

// Scanner is the vulnerability tool adapter the pipeline drives.
type Scanner interface {
	Test(ctx context.Context, dir string) (*scan.Report, error)
}

// Notifier delivers the filtered prediction to a chat channel.
type Notifier interface {
	Notify(ctx context.Context, pred *risk.Prediction) error
}

// Options configures one pipeline run.
type Options struct {
	Project        string
	Dir            string
	PackageManager scan.PackageManager
	Severities     map[scan.Severity]bool
	// OutputPath receives the JSON report; empty means the human-readable
	// report goes to Stdout instead.
	OutputPath string
	Stdout     io.Writer
}

// Outcome is the consolidated result of a run. Success reflects only
// whether the pipeline itself completed; finding vulnerabilities is the
// tool doing its job, not a failure.
type Outcome struct {
	Success          bool
	Scan             *scan.Result
	Prediction       *risk.Prediction
	NotificationSent bool
	Err              string
	Warnings         []string
}

// Pipeline runs the four stages in strict sequence: scan, predict, report,
// notify. Each stage consumes the previous stage's immutable output.
type Pipeline struct {
	opts      Options
	scanner   Scanner
	notifier  Notifier
	predictor *risk.Predictor
	logger    *slog.Logger

	// degraded collects every non-fatal failure for the final outcome.
	degraded *multierror.Error
}

func New(opts Options, scanner Scanner, notifier Notifier) *Pipeline {
	return &Pipeline{
		opts:      opts,
		scanner:   scanner,
		notifier:  notifier,
		predictor: risk.NewPredictor(),
		logger:    slog.Default().With("project", opts.Project),
	}
}

// Run drives all four stages and never panics across stage boundaries.
// Only stage 1 (missing manifest) and stage 2 can fail the run.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	out := &Outcome{}
	start := time.Now()
	defer func() {
		telemetry.ObservePipeline(time.Since(start), out.Success)
		out.Warnings = p.warnings()
	}()

	res, err := p.runScan(ctx)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	out.Scan = res

	pred := p.predictor.Predict(res)
	filtered := risk.Filter(pred, p.opts.Severities)
	out.Prediction = filtered
	p.logger.Info("risk prediction complete",
		"total", pred.Summary.TotalDependencies,
		"high", pred.Summary.HighCount,
		"medium", pred.Summary.MediumCount,
		"overall", pred.Summary.OverallLevel)

	if err := p.runReport(filtered); err != nil {
		out.Err = err.Error()
		return out
	}

	out.NotificationSent = p.runNotify(ctx, filtered)
	out.Success = true
	return out
}

func (p *Pipeline) runScan(ctx context.Context) (*scan.Result, error) {
	deps, warns, err := scan.ParseDependencies(p.opts.Dir, p.opts.PackageManager)
	if err != nil {
		return nil, err
	}
	for _, w := range warns {
		p.warn(w)
	}
	p.logger.Info("parsed dependency tree", "packageManager", p.opts.PackageManager, "dependencies", len(deps))

	var vulns []scan.Vulnerability
	rep, err := p.scanner.Test(ctx, p.opts.Dir)
	if err != nil {
		p.warn(fmt.Sprintf("no vulnerability data available: %v", err))
	} else {
		vulns = rep.Vulnerabilities
		telemetry.CountVulnerabilities(len(vulns))
		p.logger.Info("vulnerability scan complete", "findings", len(vulns), "exitCode", rep.ExitCode)
	}

	return scan.NewResult(p.opts.Project, p.opts.PackageManager, deps, vulns), nil
}

func (p *Pipeline) runReport(pred *risk.Prediction) error {
	if p.opts.OutputPath != "" {
		if err := report.WriteJSON(pred, p.opts.OutputPath); err != nil {
			return err
		}
		p.logger.Info("wrote report", "path", p.opts.OutputPath)
		return nil
	}
	report.RenderTable(p.opts.Stdout, pred)
	return nil
}

func (p *Pipeline) runNotify(ctx context.Context, pred *risk.Prediction) bool {
	if p.notifier == nil {
		return false
	}
	if err := p.notifier.Notify(ctx, pred); err != nil {
		p.warn(fmt.Sprintf("notification not delivered: %v", err))
		p.logger.Error("notification failed", "error", err)
		return false
	}
	p.logger.Info("notification sent")
	return true
}

func (p *Pipeline) warn(msg string) {
	p.logger.Warn(msg)
	p.degraded = multierror.Append(p.degraded, fmt.Errorf("%s", msg))
}

func (p *Pipeline) warnings() []string {
	if p.degraded == nil {
		return nil
	}
	var warns []string
	for _, err := range p.degraded.Errors {
		warns = append(warns, err.Error())
	}
	return warns
}
