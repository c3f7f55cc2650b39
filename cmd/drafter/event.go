package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/go-github/v68/github"

	"github.com/holon-run/drafter/pkg/drafter"
	ghclient "github.com/holon-run/drafter/pkg/github"
)

// Environment variables exported by GitHub Actions
const (
	envEventPath  = "GITHUB_EVENT_PATH"
	envRepository = "GITHUB_REPOSITORY"
	envRef        = "GITHUB_REF"
)

// eventInput gathers the CLI flags and Actions environment that describe
// one run.
type eventInput struct {
	EventPath     string
	Repo          string
	Ref           string
	DefaultBranch string
	// RefOverride is the GITHUB_REF value, if any
	RefOverride string
}

// eventInputFromEnv fills empty fields from the Actions environment.
func eventInputFromEnv(in eventInput, getenv func(string) string) eventInput {
	if in.EventPath == "" {
		in.EventPath = getenv(envEventPath)
	}
	if in.Repo == "" {
		in.Repo = getenv(envRepository)
	}
	if in.RefOverride == "" {
		in.RefOverride = getenv(envRef)
	}
	return in
}

// buildEvent turns the inputs into a pipeline event. Values from the event
// payload fill in whatever the flags left empty.
func buildEvent(in eventInput) (drafter.Event, error) {
	var ev drafter.Event

	if in.EventPath != "" {
		data, err := os.ReadFile(in.EventPath)
		if err != nil {
			return ev, fmt.Errorf("failed to read event payload: %w", err)
		}
		var push github.PushEvent
		if err := json.Unmarshal(data, &push); err != nil {
			return ev, fmt.Errorf("failed to parse event payload %s: %w", in.EventPath, err)
		}
		ev.Ref = push.GetRef()
		if repo := push.GetRepo(); repo != nil {
			ev.Owner = repo.GetOwner().GetLogin()
			if ev.Owner == "" {
				ev.Owner = repo.GetOwner().GetName()
			}
			ev.Repo = repo.GetName()
			ev.DefaultBranch = repo.GetDefaultBranch()
		}
	}

	if in.Repo != "" {
		ref, err := ghclient.ParseRepoRef(in.Repo)
		if err != nil {
			return ev, err
		}
		ev.Owner, ev.Repo = ref.Owner, ref.Repo
	}
	if in.Ref != "" {
		ev.Ref = in.Ref
	}
	if in.DefaultBranch != "" {
		ev.DefaultBranch = in.DefaultBranch
	}
	ev.RefOverride = in.RefOverride

	if ev.Owner == "" || ev.Repo == "" {
		return ev, fmt.Errorf("repository is unknown: pass --repo owner/repo or set %s", envRepository)
	}
	return ev, nil
}
