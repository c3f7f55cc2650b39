// Package release derives the contents of the next release from the commits
// and merged pull requests since the last published release.
//
// Everything in this package is a pure function of its inputs: fetching
// history and writing the release record happen elsewhere.
package release

import (
	"time"

	"github.com/holon-run/drafter/pkg/version"
)

// Commit is a commit on the tracked branch. Identity is SHA.
type Commit struct {
	SHA         string `json:"sha"`
	Message     string `json:"message"`
	AuthorLogin string `json:"author_login,omitempty"`
}

// PullRequest is a merged pull request. Identity is Number.
type PullRequest struct {
	Number         int       `json:"number"`
	Title          string    `json:"title"`
	AuthorLogin    string    `json:"author_login"`
	MergedAt       time.Time `json:"merged_at"`
	Labels         []string  `json:"labels,omitempty"`
	MergeCommitSHA string    `json:"merge_commit_sha"`
	URL            string    `json:"url,omitempty"`
}

// HasAnyLabel reports whether the pull request carries at least one of
// labels. Comparison is case-sensitive.
func (p PullRequest) HasAnyLabel(labels []string) bool {
	for _, want := range labels {
		for _, have := range p.Labels {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Release is a release record on the hosting platform.
type Release struct {
	ID         int64     `json:"id"`
	TagName    string    `json:"tag_name"`
	Name       string    `json:"name"`
	Body       string    `json:"body"`
	Draft      bool      `json:"draft"`
	Prerelease bool      `json:"prerelease"`
	CreatedAt  time.Time `json:"created_at"`
	URL        string    `json:"html_url,omitempty"`
}

// Info is the rendered release: the only output of Generate.
type Info struct {
	Name    string           `json:"name"`
	Tag     string           `json:"tag"`
	Body    string           `json:"body"`
	Version string           `json:"version"`
	Bump    version.BumpKind `json:"bump"`
}

// FindReleases picks the open draft and the baseline from a release list.
// The draft is the first draft in list order. The baseline is the most
// recently created non-draft release; on equal creation times the earlier
// entry in the list wins. Either result may be nil.
func FindReleases(releases []Release) (draft *Release, last *Release) {
	for i := range releases {
		r := releases[i]
		if r.Draft {
			if draft == nil {
				draft = &r
			}
			continue
		}
		if last == nil || r.CreatedAt.After(last.CreatedAt) {
			last = &r
		}
	}
	return draft, last
}
