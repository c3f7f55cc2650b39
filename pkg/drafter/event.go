package drafter

import "github.com/holon-run/drafter/pkg/branch"

// Event is one change notification: a push to a branch of a repository.
type Event struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	// DefaultBranch is looked up through the repository when empty
	DefaultBranch string `json:"default_branch,omitempty"`
	// Ref is the pushed ref from the payload, e.g. refs/heads/main
	Ref string `json:"ref"`
	// RefOverride replaces Ref when set. GitHub Actions exports the real
	// ref as GITHUB_REF while some payloads point elsewhere.
	RefOverride string `json:"ref_override,omitempty"`
	// DeliveryID identifies the webhook delivery, for logs only
	DeliveryID string `json:"delivery_id,omitempty"`
}

// FullName returns owner/repo
func (e Event) FullName() string {
	return e.Owner + "/" + e.Repo
}

// EffectiveRef returns RefOverride when set, Ref otherwise.
func (e Event) EffectiveRef() string {
	if e.RefOverride != "" {
		return e.RefOverride
	}
	return e.Ref
}

// Branch returns the branch name of the effective ref
func (e Event) Branch() string {
	return branch.FromRef(e.EffectiveRef())
}
