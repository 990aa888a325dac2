package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"depscan/internal/notify"
	"depscan/internal/pipeline"
	"depscan/internal/scan"
	"depscan/internal/telemetry"
)

var (
	scanProject  string
	scanPath     string
	scanPkgMgr   string
	scanNotify   string
	scanSeverity string
	scanOutput   string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Run the dependency risk pipeline against a project",
	Long: `Parses the project manifest and lock file, runs the external
vulnerability scanner, predicts a 0-100 risk score per dependency, and
renders the filtered result as a JSON report or a terminal table. With
--notify slack the summary card is also posted to the configured webhook.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanProject, "project", "", "Project display name (default: directory base name)")
	scanCmd.Flags().StringVarP(&scanPath, "path", "p", ".", "Project directory to scan")
	scanCmd.Flags().StringVar(&scanPkgMgr, "package-manager", "", "Lock file dialect: npm, yarn or pnpm")
	scanCmd.Flags().StringVar(&scanNotify, "notify", "", "Notification channel: slack or none")
	scanCmd.Flags().StringVarP(&scanSeverity, "severity", "s", "", "Comma-separated severity filter (low,medium,high,critical)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Write the JSON report here instead of printing a table")
	scanCmd.Flags().Int("timeout", 0, "Scanner subprocess timeout in seconds")

	viper.BindPFlag("scanner.timeout", scanCmd.Flags().Lookup("timeout"))
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		scanPath = args[0]
	}
	dir, err := filepath.Abs(scanPath)
	if err != nil {
		return fmt.Errorf("invalid project path %q: %w", scanPath, err)
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		slog.Debug("flag override", "flag", f.Name, "value", f.Value.String())
	})

	// All input validation happens before any stage runs.
	opts, notifier, err := buildRun(dir)
	if err != nil {
		return err
	}
	opts.Stdout = cmd.OutOrStdout()

	if port := viper.GetInt("metrics_port"); port > 0 {
		go telemetry.StartMetricsServer(fmt.Sprintf(":%d", port))
	}

	scanner := scan.NewSnykCLI(
		viper.GetString("scanner.token"),
		time.Duration(viper.GetInt("scanner.timeout"))*time.Second,
	)

	outcome := pipeline.New(*opts, scanner, notifier).Run(cmd.Context())
	for _, warn := range outcome.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warn)
	}
	if !outcome.Success {
		return fmt.Errorf("%s", outcome.Err)
	}
	return nil
}

func buildRun(dir string) (*pipeline.Options, pipeline.Notifier, error) {
	pkgMgrName := scanPkgMgr
	if pkgMgrName == "" {
		pkgMgrName = viper.GetString("package_manager")
	}
	pkgMgr, ok := scan.ParsePackageManager(pkgMgrName)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported package manager %q (expected npm, yarn or pnpm)", pkgMgrName)
	}

	severitySpec := scanSeverity
	if severitySpec == "" {
		severitySpec = viper.GetString("severity")
	}
	severities, err := scan.ParseSeveritySet(severitySpec)
	if err != nil {
		return nil, nil, err
	}

	project := scanProject
	if project == "" {
		project = filepath.Base(dir)
	}

	channel := scanNotify
	if channel == "" {
		channel = viper.GetString("notifications.channel")
	}
	var notifier pipeline.Notifier
	switch channel {
	case "", "none":
	case "slack":
		url := viper.GetString("notifications.slack.webhook_url")
		if url == "" {
			return nil, nil, fmt.Errorf("--notify slack requires SLACK_WEBHOOK_URL to be set")
		}
		notifier = notify.NewSlackNotifier(url)
	default:
		return nil, nil, fmt.Errorf("unsupported notification channel %q (expected slack or none)", channel)
	}

	return &pipeline.Options{
		Project:        project,
		Dir:            dir,
		PackageManager: pkgMgr,
		Severities:     severities,
		OutputPath:     scanOutput,
	}, notifier, nil
}
