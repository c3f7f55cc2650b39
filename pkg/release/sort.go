package release

import (
	"sort"

	"github.com/holon-run/drafter/pkg/config"
)

// SortPullRequests returns a copy of items ordered by MergedAt. The sort is
// stable: pull requests merged at the same instant keep their input order in
// both directions.
func SortPullRequests(items []PullRequest, direction config.SortDirection) ([]PullRequest, error) {
	dir, err := config.ParseSortDirection(string(direction))
	if err != nil {
		return nil, err
	}

	sorted := make([]PullRequest, len(items))
	copy(sorted, items)

	if dir == config.SortAscending {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].MergedAt.Before(sorted[j].MergedAt)
		})
	} else {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].MergedAt.After(sorted[j].MergedAt)
		})
	}
	return sorted, nil
}
