// Package drafter runs the release drafting pipeline for one event: load the
// repository options, gate on the branch, fetch the commit window and merged
// pull requests, render the release and write the draft.
//
// A Drafter holds no per-run state, so one instance may serve concurrent
// events. Concurrent runs for the same repository race on the draft record;
// the last writer wins.
package drafter

import (
	"context"
	"fmt"
	"time"

	"github.com/holon-run/drafter/pkg/branch"
	"github.com/holon-run/drafter/pkg/config"
	"github.com/holon-run/drafter/pkg/github"
	"github.com/holon-run/drafter/pkg/log"
	"github.com/holon-run/drafter/pkg/release"
)

// Repository is the read/write boundary to the release host.
type Repository interface {
	GetDefaultBranch(ctx context.Context, owner, repo string) (string, error)
	// GetConfigFile returns nil, nil when the file does not exist
	GetConfigFile(ctx context.Context, owner, repo, path string) ([]byte, error)
	ListReleases(ctx context.Context, owner, repo string) ([]release.Release, error)
	ListCommits(ctx context.Context, owner, repo, branch string, since time.Time) ([]release.Commit, error)
	ListMergedPullRequests(ctx context.Context, owner, repo string) ([]release.PullRequest, error)
	CreateRelease(ctx context.Context, owner, repo string, in github.NewRelease) (*release.Release, error)
	UpdateReleaseBody(ctx context.Context, owner, repo string, id int64, body string) (*release.Release, error)
	PublishRelease(ctx context.Context, owner, repo string, id int64) (*release.Release, error)
}

// CommitSource produces the commit window of a branch since the baseline
// release. A nil baseline means full history.
type CommitSource interface {
	CommitsSince(ctx context.Context, ev Event, branch string, baseline *release.Release) ([]release.Commit, error)
}

// Status is the terminal state of one run.
type Status string

const (
	StatusSkippedNoConfig  Status = "skipped_no_config"
	StatusSkippedBranch    Status = "skipped_branch"
	StatusSkippedNoChanges Status = "skipped_no_changes"
	StatusCreated          Status = "created"
	StatusUpdated          Status = "updated"
)

// Skipped reports whether the run ended without rendering a release
func (s Status) Skipped() bool {
	switch s {
	case StatusSkippedNoConfig, StatusSkippedBranch, StatusSkippedNoChanges:
		return true
	}
	return false
}

// Outcome describes what a run did. In dry-run mode Status, Release and
// Published describe what the run would have done.
type Outcome struct {
	Status    Status           `json:"status"`
	Branch    string           `json:"branch,omitempty"`
	Info      *release.Info    `json:"info,omitempty"`
	Release   *release.Release `json:"release,omitempty"`
	Published bool             `json:"published"`
	DryRun    bool             `json:"dry_run"`
	Commits   int              `json:"commits"`
	Pulls     int              `json:"pull_requests"`
}

// Option configures a Drafter
type Option func(*Drafter)

// WithConfigPath sets the repository path of the options file
func WithConfigPath(path string) Option {
	return func(d *Drafter) {
		if path != "" {
			d.configPath = path
		}
	}
}

// WithDryRun renders the release without writing it
func WithDryRun(dryRun bool) Option {
	return func(d *Drafter) {
		d.dryRun = dryRun
	}
}

// WithCommitSource replaces the repository as the source of the commit window
func WithCommitSource(src CommitSource) Option {
	return func(d *Drafter) {
		if src != nil {
			d.commits = src
		}
	}
}

// Drafter runs the pipeline against a Repository.
type Drafter struct {
	repo       Repository
	commits    CommitSource
	configPath string
	dryRun     bool
}

// New creates a Drafter
func New(repo Repository, opts ...Option) *Drafter {
	d := &Drafter{
		repo:       repo,
		commits:    remoteCommits{repo: repo},
		configPath: config.DefaultDrafterConfigPath,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes one event. No-op outcomes (missing options file, branch not
// triggerable, empty commit window) return a nil error. A *config.Error
// aborts the run before any write.
func (d *Drafter) Run(ctx context.Context, ev Event) (Outcome, error) {
	logger := log.With("repo", ev.FullName())
	if ev.DeliveryID != "" {
		logger = logger.With("delivery", ev.DeliveryID)
	}
	out := Outcome{DryRun: d.dryRun}

	defaultBranch := ev.DefaultBranch
	if defaultBranch == "" {
		b, err := d.repo.GetDefaultBranch(ctx, ev.Owner, ev.Repo)
		if err != nil {
			return out, fmt.Errorf("failed to resolve default branch: %w", err)
		}
		defaultBranch = b
	}

	data, err := d.repo.GetConfigFile(ctx, ev.Owner, ev.Repo, d.configPath)
	if err != nil {
		return out, fmt.Errorf("failed to fetch %s: %w", d.configPath, err)
	}
	if data == nil {
		logger.Info("config file not found, nothing to do", "path", d.configPath)
		out.Status = StatusSkippedNoConfig
		return out, nil
	}

	cfg, err := config.Resolve(data, defaultBranch)
	if err != nil {
		logger.Error("invalid configuration", "path", d.configPath, "error", err)
		return out, err
	}

	out.Branch = ev.Branch()
	if !branch.IsTriggerable(out.Branch, cfg.BranchRules(), defaultBranch) {
		logger.Info("branch does not trigger a draft", "branch", out.Branch)
		out.Status = StatusSkippedBranch
		return out, nil
	}

	releases, err := d.repo.ListReleases(ctx, ev.Owner, ev.Repo)
	if err != nil {
		return out, fmt.Errorf("failed to list releases: %w", err)
	}
	draft, last := release.FindReleases(releases)
	if last != nil {
		logger.Debug("baseline release", "tag", last.TagName, "created_at", last.CreatedAt)
	} else {
		logger.Debug("no published release, using full history")
	}

	commits, err := d.commits.CommitsSince(ctx, ev, out.Branch, last)
	if err != nil {
		return out, fmt.Errorf("failed to list commits: %w", err)
	}
	if len(commits) == 0 {
		logger.Info("no new commits since last release", "branch", out.Branch)
		out.Status = StatusSkippedNoChanges
		return out, nil
	}

	pulls, err := d.repo.ListMergedPullRequests(ctx, ev.Owner, ev.Repo)
	if err != nil {
		return out, fmt.Errorf("failed to list pull requests: %w", err)
	}

	matched := release.MatchCommits(commits, pulls)
	sorted, err := release.SortPullRequests(matched.PullRequests, cfg.SortDirection)
	if err != nil {
		return out, err
	}
	out.Commits = len(matched.Commits)
	out.Pulls = len(sorted)
	logger.Debug("matched commit window", "commits", out.Commits, "pull_requests", out.Pulls)

	info := release.Generate(release.Input{
		Commits:      matched.Commits,
		PullRequests: sorted,
		Config:       cfg,
		LastRelease:  last,
	})
	out.Info = &info

	if d.dryRun {
		out.Status = StatusCreated
		if draft != nil {
			out.Status = StatusUpdated
			out.Release = draft
		}
		out.Published = cfg.AutoRelease()
		logger.Info("dry run, skipping write", "status", out.Status, "version", info.Version)
		return out, nil
	}

	var target *release.Release
	if draft == nil {
		target, err = d.repo.CreateRelease(ctx, ev.Owner, ev.Repo, github.NewRelease{
			Name:    info.Name,
			TagName: info.Tag,
			Body:    info.Body,
		})
		if err != nil {
			return out, fmt.Errorf("failed to create draft release: %w", err)
		}
		out.Status = StatusCreated
		logger.Progress("created draft release", "release_id", target.ID, "version", info.Version)
	} else {
		target, err = d.repo.UpdateReleaseBody(ctx, ev.Owner, ev.Repo, draft.ID, info.Body)
		if err != nil {
			return out, fmt.Errorf("failed to update draft release %d: %w", draft.ID, err)
		}
		out.Status = StatusUpdated
		logger.Progress("updated draft release", "release_id", target.ID, "version", info.Version)
	}
	out.Release = target

	if cfg.AutoRelease() {
		published, err := d.repo.PublishRelease(ctx, ev.Owner, ev.Repo, target.ID)
		if err != nil {
			return out, fmt.Errorf("failed to publish release %d: %w", target.ID, err)
		}
		out.Release = published
		out.Published = true
		logger.Progress("published release", "release_id", published.ID, "tag", published.TagName)
	}

	return out, nil
}

// remoteCommits reads the commit window through the Repository, starting at
// the baseline's creation time.
type remoteCommits struct {
	repo Repository
}

func (r remoteCommits) CommitsSince(ctx context.Context, ev Event, branch string, baseline *release.Release) ([]release.Commit, error) {
	var since time.Time
	if baseline != nil {
		since = baseline.CreatedAt
	}
	return r.repo.ListCommits(ctx, ev.Owner, ev.Repo, branch, since)
}
