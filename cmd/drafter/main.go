package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/holon-run/drafter/pkg/config"
	"github.com/holon-run/drafter/pkg/github"
	"github.com/holon-run/drafter/pkg/log"
)

var (
	logLevel   string
	logFile    string
	configName string
	baseURL    string

	// settings is loaded once per invocation in PersistentPreRunE
	settings = &config.Settings{}
)

var rootCmd = &cobra.Command{
	Use:   "drafter",
	Short: "Drafts the next release's notes whenever changes land on a tracked branch",
	Long: `drafter keeps a draft release up to date with the pull requests merged
since the last published release. It reads .github/release-drafter.yml from
the repository, renders the release body, and creates or updates the draft.

It runs as a one-shot command (for example inside GitHub Actions) or as a
webhook server receiving push events.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFromCurrentDir()
		if err != nil {
			return err
		}
		settings = loaded

		level, _ := settings.ResolveLogLevel(logLevel, log.LevelInfo)
		file, _ := settings.ResolveLogFile(logFile)
		return log.Setup(log.Options{Level: level, File: file})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Close()
	},
}

// newClient builds the GitHub client from the environment token and settings.
func newClient() (*github.Client, error) {
	url, source := settings.ResolveBaseURL(baseURL, github.DefaultBaseURL)
	log.Debug("using GitHub API", "base_url", url, "source", source)

	return github.NewClientFromEnv(
		github.WithBaseURL(url),
		github.WithTimeout(30*time.Second),
		github.WithRateLimitTracking(true),
		github.WithRetryConfig(github.DefaultRetryConfig()),
	)
}

func resolvedConfigName() string {
	name, _ := settings.ResolveConfigName(configName)
	return name
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, progress, minimal (default info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	rootCmd.PersistentFlags().StringVar(&configName, "config-name", "", "Repository path of the drafter options file (default .github/release-drafter.yml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "GitHub API base URL (default https://api.github.com)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
