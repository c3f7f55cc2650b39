package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/holon-run/drafter/pkg/github"
	"github.com/holon-run/drafter/pkg/release"
	"github.com/holon-run/drafter/pkg/version"
)

// These variables are set via ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const (
	repoOwner = "holon-run"
	repoName  = "drafter"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for the drafter CLI.

This shows the version number, git commit SHA, and build date.
With --check the latest published release is looked up on GitHub.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "drafter version %s\n", Version)
		if Commit != "" && Commit != "unknown" {
			fmt.Fprintf(w, "commit: %s\n", Commit)
		}
		if BuildDate != "" && BuildDate != "unknown" {
			fmt.Fprintf(w, "built at: %s\n", BuildDate)
		}

		if versionCheck {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			// The token is optional for public releases
			client := github.NewClient(github.TokenFromEnv())
			if err := checkForUpdates(ctx, w, client); err != nil {
				// Not fatal
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to check for updates: %v\n", err)
			}
		}
		return nil
	},
}

type releaseLister interface {
	ListReleases(ctx context.Context, owner, repo string) ([]release.Release, error)
}

// checkForUpdates compares Version with the newest published release
func checkForUpdates(ctx context.Context, w io.Writer, client releaseLister) error {
	releases, err := client.ListReleases(ctx, repoOwner, repoName)
	if err != nil {
		return err
	}

	latest, ok := latestStable(releases)
	if !ok {
		return fmt.Errorf("no published release found")
	}

	current, err := version.Parse(Version)
	if err != nil {
		fmt.Fprintf(w, "Latest release: %s\n", latest.TagName)
		return nil
	}
	latestVersion, _ := version.Parse(latest.TagName)
	if current.Less(latestVersion) {
		fmt.Fprintf(w, "A newer version is available: %s (%s)\n", latest.TagName, latest.URL)
		return nil
	}
	fmt.Fprintf(w, "You're running the latest version (%s)\n", latest.TagName)
	return nil
}

// latestStable returns the highest non-draft, non-prerelease semver release
func latestStable(releases []release.Release) (release.Release, bool) {
	var best release.Release
	var bestVersion version.Version
	found := false
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		v, err := version.Parse(r.TagName)
		if err != nil {
			continue
		}
		if !found || bestVersion.Less(v) {
			best, bestVersion, found = r, v, true
		}
	}
	return best, found
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check for newer drafter releases")
	rootCmd.AddCommand(versionCmd)
}
