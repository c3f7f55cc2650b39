package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"

	"github.com/holon-run/drafter/pkg/release"
)

// ListReleases returns every release of the repository, drafts included,
// in the order the API returns them (newest first).
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]release.Release, error) {
	opts := &github.ListOptions{PerPage: PerPage}

	var all []release.Release
	for {
		releases, resp, err := c.GitHubClient().Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list releases: %w", err)
		}

		for _, r := range releases {
			all = append(all, convertFromGitHubRelease(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateRelease creates a draft release
func (c *Client) CreateRelease(ctx context.Context, owner, repo string, in NewRelease) (*release.Release, error) {
	created, _, err := c.GitHubClient().Repositories.CreateRelease(ctx, owner, repo, &github.RepositoryRelease{
		Name:    github.Ptr(in.Name),
		TagName: github.Ptr(in.TagName),
		Body:    github.Ptr(in.Body),
		Draft:   github.Ptr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create release: %w", err)
	}

	out := convertFromGitHubRelease(created)
	return &out, nil
}

// UpdateReleaseBody replaces the body of an existing release
func (c *Client) UpdateReleaseBody(ctx context.Context, owner, repo string, id int64, body string) (*release.Release, error) {
	updated, _, err := c.GitHubClient().Repositories.EditRelease(ctx, owner, repo, id, &github.RepositoryRelease{
		Body: github.Ptr(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update release %d: %w", id, err)
	}

	out := convertFromGitHubRelease(updated)
	return &out, nil
}

// PublishRelease marks a draft release as published
func (c *Client) PublishRelease(ctx context.Context, owner, repo string, id int64) (*release.Release, error) {
	published, _, err := c.GitHubClient().Repositories.EditRelease(ctx, owner, repo, id, &github.RepositoryRelease{
		Draft: github.Ptr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish release %d: %w", id, err)
	}

	out := convertFromGitHubRelease(published)
	return &out, nil
}

// convertFromGitHubRelease converts a github.RepositoryRelease to our Release type
func convertFromGitHubRelease(r *github.RepositoryRelease) release.Release {
	return release.Release{
		ID:         r.GetID(),
		TagName:    r.GetTagName(),
		Name:       r.GetName(),
		Body:       r.GetBody(),
		Draft:      r.GetDraft(),
		Prerelease: r.GetPrerelease(),
		CreatedAt:  r.GetCreatedAt().Time,
		URL:        r.GetHTMLURL(),
	}
}
