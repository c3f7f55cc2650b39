package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/holon-run/drafter/pkg/drafter"
)

var (
	runRepo          string
	runRef           string
	runEventPath     string
	runDefaultBranch string
	runDryRun        bool
	runJSON          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Draft the release for one push event",
	Long: `Run the drafter once for a push event.

Inside GitHub Actions the event is read from GITHUB_EVENT_PATH, the repository
from GITHUB_REPOSITORY, and GITHUB_REF overrides the ref of the payload.
Outside Actions pass --repo and --ref.

The GitHub token is read from DRAFTER_GITHUB_TOKEN or GITHUB_TOKEN.`,
	Example: `  drafter run
  drafter run --repo octo/hello --ref refs/heads/main --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := eventInputFromEnv(eventInput{
			EventPath:     runEventPath,
			Repo:          runRepo,
			Ref:           runRef,
			DefaultBranch: runDefaultBranch,
		}, os.Getenv)
		ev, err := buildEvent(in)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		d := drafter.New(client,
			drafter.WithConfigPath(resolvedConfigName()),
			drafter.WithDryRun(runDryRun),
		)
		out, err := d.Run(cmd.Context(), ev)
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), out, runJSON)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runRepo, "repo", "r", "", "Repository as owner/repo or GitHub URL (default $GITHUB_REPOSITORY)")
	runCmd.Flags().StringVar(&runRef, "ref", "", "Pushed ref, e.g. refs/heads/main (default from the event payload)")
	runCmd.Flags().StringVar(&runEventPath, "event-path", "", "Path of the push event payload (default $GITHUB_EVENT_PATH)")
	runCmd.Flags().StringVar(&runDefaultBranch, "default-branch", "", "Default branch (default from the payload or the API)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Render the release without writing it")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the outcome as JSON")
	rootCmd.AddCommand(runCmd)
}
