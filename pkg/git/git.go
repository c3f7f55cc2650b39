// Package git reads commit history from a local clone with go-git. It backs
// the preview command when the commit window should come from a working copy
// instead of the GitHub API.
package git

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/holon-run/drafter/pkg/drafter"
	"github.com/holon-run/drafter/pkg/release"
)

// DefaultRemote is the remote consulted for the repository URL and for
// remote-tracking branches.
const DefaultRemote = "origin"

// noreplyPattern extracts the login from GitHub noreply addresses
// (12345+login@users.noreply.github.com or login@users.noreply.github.com).
var noreplyPattern = regexp.MustCompile(`^(?:\d+\+)?([A-Za-z0-9-]+)@users\.noreply\.github\.com$`)

// Repository is an opened local repository.
type Repository struct {
	// Dir is the working directory of the repository.
	Dir string

	repo *gogit.Repository
}

// Open opens the repository at dir or any of its parents.
func Open(dir string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s is not a git repository", dir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &Repository{Dir: dir, repo: repo}, nil
}

// RemoteURL returns the first URL of the named remote.
func (r *Repository) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to get remote '%s': %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote '%s' has no URL", name)
	}
	return urls[0], nil
}

// CurrentBranch returns the checked out branch, or an error on detached HEAD.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// Commits returns the commits reachable from branch but not from
// baselineTag, newest first, like `git log baselineTag..branch`. An empty
// baselineTag returns the full history of branch.
func (r *Repository) Commits(ctx context.Context, branch, baselineTag string) ([]release.Commit, error) {
	head, err := r.resolveBranch(branch)
	if err != nil {
		return nil, err
	}

	exclude := map[plumbing.Hash]bool{}
	if baselineTag != "" {
		base, err := r.repo.ResolveRevision(plumbing.Revision(baselineTag))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve baseline tag %s (are tags fetched?): %w", baselineTag, err)
		}
		if err := r.walk(ctx, *base, func(c *object.Commit) {
			exclude[c.Hash] = true
		}); err != nil {
			return nil, err
		}
	}

	var commits []release.Commit
	err = r.walk(ctx, head, func(c *object.Commit) {
		if exclude[c.Hash] {
			return
		}
		commits = append(commits, release.Commit{
			SHA:         c.Hash.String(),
			Message:     c.Message,
			AuthorLogin: loginFromEmail(c.Author.Email),
		})
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

func (r *Repository) resolveBranch(branch string) (plumbing.Hash, error) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(branch),
		plumbing.NewRemoteReferenceName(DefaultRemote, branch),
	}
	for _, name := range candidates {
		ref, err := r.repo.Reference(name, true)
		if err == nil {
			return ref.Hash(), nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("branch %s not found locally or on %s", branch, DefaultRemote)
}

func (r *Repository) walk(ctx context.Context, from plumbing.Hash, fn func(*object.Commit)) error {
	iter, err := r.repo.Log(&gogit.LogOptions{From: from, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return fmt.Errorf("failed to read log from %s: %w", from, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(c)
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return fmt.Errorf("failed to walk log: %w", err)
	}
	return nil
}

func loginFromEmail(email string) string {
	if m := noreplyPattern.FindStringSubmatch(email); m != nil {
		return m[1]
	}
	return ""
}

// Source adapts a Repository to drafter.CommitSource: the baseline release's
// tag bounds the window.
type Source struct {
	Repo *Repository
}

// CommitsSince implements drafter.CommitSource
func (s Source) CommitsSince(ctx context.Context, ev drafter.Event, branch string, baseline *release.Release) ([]release.Commit, error) {
	tag := ""
	if baseline != nil {
		tag = baseline.TagName
	}
	return s.Repo.Commits(ctx, branch, tag)
}
