package github

import (
	"fmt"
	"regexp"
	"strings"
)

// RepoRef identifies a repository on GitHub
type RepoRef struct {
	Owner string
	Repo  string
}

var (
	// Full URL patterns
	repoURLPattern = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	sshURLPattern  = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	// Short pattern
	shortRepoPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9-]*)/([A-Za-z0-9._-]+)$`)
)

// ParseRepoRef parses a repository reference.
// Supported formats:
//   - <owner>/<repo>
//   - https://github.com/<owner>/<repo>[.git]
//   - git@github.com:<owner>/<repo>[.git]
func ParseRepoRef(ref string) (RepoRef, error) {
	ref = strings.TrimSpace(ref)

	for _, pattern := range []*regexp.Regexp{repoURLPattern, sshURLPattern, shortRepoPattern} {
		if matches := pattern.FindStringSubmatch(ref); matches != nil {
			return RepoRef{Owner: matches[1], Repo: matches[2]}, nil
		}
	}

	return RepoRef{}, fmt.Errorf("invalid repository reference %q (supported: owner/repo, https://github.com/owner/repo, git@github.com:owner/repo.git)", ref)
}

// String returns owner/repo
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// URL returns the GitHub URL for the repository
func (r RepoRef) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Repo)
}
