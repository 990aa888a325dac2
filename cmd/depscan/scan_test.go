package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depscan/internal/scan"
)

func resetScanFlags() {
	scanProject = ""
	scanPath = "."
	scanPkgMgr = ""
	scanNotify = ""
	scanSeverity = ""
	scanOutput = ""
}

func setScanDefaults() {
	viper.Set("package_manager", "npm")
	viper.Set("severity", "high,critical")
	viper.Set("notifications.channel", "none")
}

func TestBuildRun_Defaults(t *testing.T) {
	resetScanFlags()
	viper.Reset()
	defer viper.Reset()
	setScanDefaults()

	opts, notifier, err := buildRun("/work/webshop")
	require.NoError(t, err)
	assert.Nil(t, notifier)
	assert.Equal(t, "webshop", opts.Project)
	assert.Equal(t, scan.Npm, opts.PackageManager)
	assert.Equal(t, map[scan.Severity]bool{scan.SeverityHigh: true, scan.SeverityCritical: true}, opts.Severities)
}

func TestBuildRun_FlagsOverrideConfig(t *testing.T) {
	resetScanFlags()
	viper.Reset()
	defer viper.Reset()
	setScanDefaults()

	scanProject = "checkout-service"
	scanPkgMgr = "pnpm"
	scanSeverity = "medium,high"

	opts, _, err := buildRun("/work/webshop")
	require.NoError(t, err)
	assert.Equal(t, "checkout-service", opts.Project)
	assert.Equal(t, scan.Pnpm, opts.PackageManager)
	assert.Equal(t, map[scan.Severity]bool{scan.SeverityMedium: true, scan.SeverityHigh: true}, opts.Severities)
}

func TestBuildRun_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		setup  func()
		errMsg string
	}{
		{
			name:   "unsupported package manager",
			setup:  func() { scanPkgMgr = "cargo" },
			errMsg: "unsupported package manager",
		},
		{
			name:   "invalid severity",
			setup:  func() { scanSeverity = "high,urgent" },
			errMsg: "invalid severity",
		},
		{
			name:   "empty severity filter",
			setup:  func() { scanSeverity = "," },
			errMsg: "empty severity filter",
		},
		{
			name:   "unknown notification channel",
			setup:  func() { scanNotify = "pager" },
			errMsg: "unsupported notification channel",
		},
		{
			name:   "slack channel without webhook",
			setup:  func() { scanNotify = "slack" },
			errMsg: "SLACK_WEBHOOK_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetScanFlags()
			viper.Reset()
			defer viper.Reset()
			setScanDefaults()
			tt.setup()

			_, _, err := buildRun("/work/webshop")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBuildRun_SlackNotifier(t *testing.T) {
	resetScanFlags()
	viper.Reset()
	defer viper.Reset()
	setScanDefaults()

	scanNotify = "slack"
	viper.Set("notifications.slack.webhook_url", "https://hooks.example.com/T123")

	_, notifier, err := buildRun("/work/webshop")
	require.NoError(t, err)
	assert.NotNil(t, notifier)
}
