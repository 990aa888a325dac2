package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes the configuration from file and environment variables.
// Precedence: flags (bound by the CLI) > DEPSCAN_* env vars > config file
// > defaults. Deep code never reads the process environment directly; the
// well-known plain variables are bridged into viper keys here.
func Load(cfgFile string) {
	// explicit .env loading; a missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("depscan")
	}

	viper.SetEnvPrefix("DEPSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bridge the conventional environment variables of the external
	// collaborators so they work without the DEPSCAN_ prefix.
	if os.Getenv("DEPSCAN_SCANNER_TOKEN") == "" && os.Getenv("SNYK_TOKEN") != "" {
		viper.SetDefault("scanner.token", os.Getenv("SNYK_TOKEN"))
	}
	if os.Getenv("DEPSCAN_NOTIFICATIONS_SLACK_WEBHOOK_URL") == "" && os.Getenv("SLACK_WEBHOOK_URL") != "" {
		viper.SetDefault("notifications.slack.webhook_url", os.Getenv("SLACK_WEBHOOK_URL"))
	}

	viper.SetDefault("package_manager", "npm")
	viper.SetDefault("severity", "high,critical")
	viper.SetDefault("scanner.timeout", 300)
	viper.SetDefault("notifications.channel", "none")
	viper.SetDefault("metrics_port", 0)
	viper.SetDefault("verbose", false)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
