package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"depscan/internal/scan"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errors []string

	// Validate scanner timeout (must be positive)
	// Try GetDuration first, then fall back to GetInt (seconds) if that fails
	if viper.IsSet("scanner.timeout") {
		var timeout time.Duration
		if d := viper.GetDuration("scanner.timeout"); d != 0 {
			timeout = d
		} else if s := viper.GetInt("scanner.timeout"); s != 0 {
			timeout = time.Duration(s) * time.Second
		}
		if timeout <= 0 {
			errors = append(errors, fmt.Sprintf("scanner.timeout must be positive, got: %v", timeout))
		}
	}

	// Validate package_manager (if set, must be a supported lock file dialect)
	if viper.IsSet("package_manager") {
		pm := viper.GetString("package_manager")
		if _, ok := scan.ParsePackageManager(pm); !ok {
			errors = append(errors, fmt.Sprintf("package_manager must be one of npm, yarn, pnpm, got: %q", pm))
		}
	}

	// Validate severity (if set, must be a comma list of known severities)
	if viper.IsSet("severity") {
		if _, err := scan.ParseSeveritySet(viper.GetString("severity")); err != nil {
			errors = append(errors, fmt.Sprintf("severity is invalid: %v", err))
		}
	}

	// Validate notifications.channel (if set)
	if viper.IsSet("notifications.channel") {
		channel := viper.GetString("notifications.channel")
		if channel != "none" && channel != "slack" {
			errors = append(errors, fmt.Sprintf("notifications.channel must be none or slack, got: %q", channel))
		}
		if channel == "slack" && viper.GetString("notifications.slack.webhook_url") == "" {
			errors = append(errors, "notifications.channel is slack but no webhook URL is configured")
		}
	}

	// Validate metrics_port (if set, must be in valid range; 0 disables metrics)
	if viper.IsSet("metrics_port") {
		port := viper.GetInt("metrics_port")
		if port < 0 || port > 65535 {
			errors = append(errors, fmt.Sprintf("metrics_port must be between 0 and 65535, got: %d", port))
		}
	}

	// If there are any errors, return them
	if len(errors) > 0 {
		errorMsg := errors[0]
		for i := 1; i < len(errors); i++ {
			errorMsg += "\n  " + errors[i]
		}
		return fmt.Errorf("configuration validation failed:\n  %s", errorMsg)
	}

	return nil
}

// ValidateAndExit validates the configuration and exits with a non-zero code if validation fails.
// This is a convenience function that prints errors to stderr and exits.
func ValidateAndExit() {
	if err := ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
