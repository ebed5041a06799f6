package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/osudump/osudump/internal/config"
	"github.com/osudump/osudump/internal/core/store"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime and effective configuration information.",
	Args:  noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		writeEnvInfo(cmd.OutOrStdout(), cfg, viper.ConfigFileUsed())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func writeEnvInfo(w io.Writer, cfg *config.Config, configFile string) {
	version := crucible.GetVersion()
	if strings.TrimSpace(configFile) == "" {
		configFile = config.DefaultConfigPath() + " (not found)"
	}

	lines := []string{
		"=== osudump Environment Information ===",
		"",
		"Application:",
		"  Version:        " + versionInfo.Version,
		"  Commit:         " + versionInfo.Commit,
		"  Built:          " + versionInfo.BuildDate,
		"  Gofulmen:       " + version.Gofulmen,
		"",
		"Runtime:",
		"  Go Version:     " + runtime.Version(),
		"  GOOS/GOARCH:    " + runtime.GOOS + "/" + runtime.GOARCH,
		"",
		"Configuration:",
		"  Config File:    " + configFile,
		"  API Base URL:   " + cfg.API.BaseURL,
		"  User Agent:     " + cfg.API.UserAgent,
		"  Rate Limit:     " + describeRateLimit(cfg),
		fmt.Sprintf("  Page Size:      %d", cfg.Fetch.PageSize),
		fmt.Sprintf("  Max Retries:    %d", cfg.Fetch.MaxRetries),
		"  Backoff Base:   " + cfg.Fetch.BackoffBase.String(),
		"  Request Timeout: " + cfg.Fetch.RequestTimeout.String(),
		"  Fetch Timeout:  " + describeZero(cfg.Fetch.Timeout.String(), cfg.Fetch.Timeout == 0),
		"  Max Pages:      " + describeZero(fmt.Sprint(cfg.Fetch.MaxPages), cfg.Fetch.MaxPages == 0),
		"  Log Level:      " + cfg.Logging.Level,
	}
	if strings.TrimSpace(cfg.Store.URL) != "" {
		lines = append(lines, "  DB URL:         "+store.RedactURL(cfg.Store.URL))
		if strings.TrimSpace(cfg.Store.AuthToken) != "" {
			lines = append(lines, "  DB Auth Token:  (set)")
		}
	} else {
		lines = append(lines, "  DB Path:        "+cfg.Store.Path)
	}
	lines = append(lines, "", "=== End Environment Information ===")

	_, _ = fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func describeRateLimit(cfg *config.Config) string {
	if cfg.RateLimit.Unlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d requests per %ds", cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSeconds)
}

func describeZero(value string, zero bool) string {
	if zero {
		return "none"
	}
	return value
}
