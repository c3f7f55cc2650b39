package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/holon-run/drafter/pkg/release"
)

// ListCommits lists commits reachable from branch, newest first. A zero since
// returns the full history.
func (c *Client) ListCommits(ctx context.Context, owner, repo, branch string, since time.Time) ([]release.Commit, error) {
	opts := &github.CommitsListOptions{
		SHA:         branch,
		Since:       since,
		ListOptions: github.ListOptions{PerPage: PerPage},
	}

	var all []release.Commit
	for {
		commits, resp, err := c.GitHubClient().Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits: %w", err)
		}

		for _, commit := range commits {
			all = append(all, convertFromGitHubCommit(commit))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// convertFromGitHubCommit converts a github.RepositoryCommit to our Commit type
func convertFromGitHubCommit(commit *github.RepositoryCommit) release.Commit {
	out := release.Commit{
		SHA:     commit.GetSHA(),
		Message: commit.GetCommit().GetMessage(),
	}
	// Author is nil when the commit email is not linked to an account
	if author := commit.GetAuthor(); author != nil {
		out.AuthorLogin = author.GetLogin()
	}
	return out
}

// ListMergedPullRequests lists every merged pull request of the repository.
// Closed but unmerged pull requests are dropped.
func (c *Client) ListMergedPullRequests(ctx context.Context, owner, repo string) ([]release.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: PerPage},
	}

	var all []release.PullRequest
	for {
		pulls, resp, err := c.GitHubClient().PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}

		for _, pr := range pulls {
			if pr.MergedAt == nil {
				continue
			}
			all = append(all, convertFromGitHubPR(pr))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// convertFromGitHubPR converts a github.PullRequest to our PullRequest type
func convertFromGitHubPR(pr *github.PullRequest) release.PullRequest {
	author := ""
	if user := pr.GetUser(); user != nil {
		author = user.GetLogin()
	}

	out := release.PullRequest{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		AuthorLogin:    author,
		MergedAt:       pr.GetMergedAt().Time,
		MergeCommitSHA: pr.GetMergeCommitSHA(),
		URL:            pr.GetHTMLURL(),
	}

	if len(pr.Labels) > 0 {
		out.Labels = make([]string, len(pr.Labels))
		for i, label := range pr.Labels {
			out.Labels[i] = label.GetName()
		}
	}

	return out
}

// GetDefaultBranch returns the default branch of the repository
func (c *Client) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := c.GitHubClient().Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to fetch repository: %w", err)
	}
	return r.GetDefaultBranch(), nil
}
