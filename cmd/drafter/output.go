package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/holon-run/drafter/pkg/drafter"
)

// printOutcome writes a human-readable summary, or JSON when asJSON is set.
func printOutcome(w io.Writer, out drafter.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	prefix := ""
	if out.DryRun {
		prefix = "[dry run] "
	}

	switch out.Status {
	case drafter.StatusSkippedNoConfig:
		fmt.Fprintf(w, "%sNo configuration file, nothing to do.\n", prefix)
		return nil
	case drafter.StatusSkippedBranch:
		fmt.Fprintf(w, "%sBranch %q does not trigger a draft.\n", prefix, out.Branch)
		return nil
	case drafter.StatusSkippedNoChanges:
		fmt.Fprintf(w, "%sNo new commits since the last release.\n", prefix)
		return nil
	}

	action := "Created"
	if out.Status == drafter.StatusUpdated {
		action = "Updated"
	}
	if out.DryRun {
		action = "Would have " + strings.ToLower(action)
	}
	fmt.Fprintf(w, "%s%s draft release", prefix, action)
	if out.Release != nil && out.Release.ID != 0 {
		fmt.Fprintf(w, " %d", out.Release.ID)
	}
	fmt.Fprintf(w, " (%d commits, %d pull requests)\n", out.Commits, out.Pulls)

	if out.Info != nil {
		fmt.Fprintf(w, "Name:    %s\n", out.Info.Name)
		fmt.Fprintf(w, "Tag:     %s\n", out.Info.Tag)
		fmt.Fprintf(w, "Version: %s (bump: %s)\n", out.Info.Version, out.Info.Bump)
		fmt.Fprintf(w, "\n%s\n", out.Info.Body)
	}
	if out.Published {
		if out.DryRun {
			fmt.Fprintln(w, "Would publish the release (auto-release).")
		} else {
			fmt.Fprintln(w, "Published the release (auto-release).")
		}
	}
	return nil
}
