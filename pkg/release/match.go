package release

// MatchResult is the commit window together with the pull requests that
// introduced commits in it.
type MatchResult struct {
	Commits      []Commit
	PullRequests []PullRequest
}

// MatchCommits associates each commit with the pull request whose merge
// commit it is. Commits that are not a known merge commit, such as squash
// merges whose sha differs or direct pushes, stay unassociated. The window is
// purely structural: a pull request is included only when its merge commit
// is one of commits, whatever its merge time. Pull requests are deduplicated
// and returned in the order their first commit appears.
func MatchCommits(commits []Commit, pulls []PullRequest) MatchResult {
	bySHA := make(map[string]PullRequest, len(pulls))
	for _, pr := range pulls {
		if pr.MergeCommitSHA == "" {
			continue
		}
		if _, exists := bySHA[pr.MergeCommitSHA]; !exists {
			bySHA[pr.MergeCommitSHA] = pr
		}
	}

	result := MatchResult{
		Commits:      make([]Commit, 0, len(commits)),
		PullRequests: []PullRequest{},
	}
	seen := make(map[int]bool)

	for _, c := range commits {
		result.Commits = append(result.Commits, c)

		pr, ok := bySHA[c.SHA]
		if !ok || seen[pr.Number] {
			continue
		}
		seen[pr.Number] = true
		result.PullRequests = append(result.PullRequests, pr)
	}

	return result
}
