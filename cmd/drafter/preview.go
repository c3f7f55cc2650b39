package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holon-run/drafter/pkg/drafter"
	"github.com/holon-run/drafter/pkg/git"
	"github.com/holon-run/drafter/pkg/github"
)

var (
	previewRepo   string
	previewBranch string
	previewLocal  string
	previewJSON   bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the next release without touching it",
	Long: `Render the release the drafter would write for a branch, without creating,
updating or publishing anything.

With --local the commit window is read from a local clone instead of the API:
commits reachable from the branch but not from the last release's tag. The
repository defaults to the clone's origin remote and the branch to its
checked out branch.`,
	Example: `  drafter preview --repo octo/hello
  drafter preview --local . --branch main`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := []drafter.Option{
			drafter.WithConfigPath(resolvedConfigName()),
			drafter.WithDryRun(true),
		}

		repoRef := previewRepo
		branch := previewBranch
		if previewLocal != "" {
			local, err := git.Open(previewLocal)
			if err != nil {
				return err
			}
			if repoRef == "" {
				if repoRef, err = local.RemoteURL(git.DefaultRemote); err != nil {
					return fmt.Errorf("cannot infer repository, pass --repo: %w", err)
				}
			}
			if branch == "" {
				if branch, err = local.CurrentBranch(); err != nil {
					return fmt.Errorf("cannot infer branch, pass --branch: %w", err)
				}
			}
			opts = append(opts, drafter.WithCommitSource(git.Source{Repo: local}))
		}
		if repoRef == "" {
			return fmt.Errorf("--repo is required without --local")
		}

		ref, err := github.ParseRepoRef(repoRef)
		if err != nil {
			return err
		}
		ev := drafter.Event{Owner: ref.Owner, Repo: ref.Repo}
		if branch != "" {
			ev.Ref = "refs/heads/" + branch
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		if ev.Ref == "" {
			// Preview the default branch when nothing else was given
			if ev.DefaultBranch, err = client.GetDefaultBranch(cmd.Context(), ev.Owner, ev.Repo); err != nil {
				return err
			}
			ev.Ref = "refs/heads/" + ev.DefaultBranch
		}

		out, err := drafter.New(client, opts...).Run(cmd.Context(), ev)
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), out, previewJSON)
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewRepo, "repo", "r", "", "Repository as owner/repo or GitHub URL")
	previewCmd.Flags().StringVarP(&previewBranch, "branch", "b", "", "Branch to preview (default: the default branch)")
	previewCmd.Flags().StringVar(&previewLocal, "local", "", "Read commits from the clone at this path")
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "Print the outcome as JSON")
	rootCmd.AddCommand(previewCmd)
}
