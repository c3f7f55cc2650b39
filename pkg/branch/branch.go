// Package branch decides which pushed branches trigger a release draft.
package branch

import (
	"fmt"
	"path"
	"strings"
)

// Rules holds the include and exclude patterns for triggerable branches.
// Patterns use path.Match syntax, so "release/*" matches "release/1.x" but not
// "release/1.x/hotfix".
type Rules struct {
	Include []string
	Exclude []string
}

// FromRef strips the refs/heads/ prefix from a git ref.
func FromRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}

// ValidatePattern reports whether pattern is well-formed.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("branch pattern must not be empty")
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid branch pattern %q: %w", pattern, err)
	}
	return nil
}

// IsTriggerable reports whether branch matches at least one include pattern
// and no exclude pattern. Exclude wins when both match. Without include
// patterns only defaultBranch triggers.
func IsTriggerable(branch string, rules Rules, defaultBranch string) bool {
	include := rules.Include
	if len(include) == 0 {
		include = []string{defaultBranch}
	}

	if matchAny(branch, rules.Exclude) {
		return false
	}
	return matchAny(branch, include)
}

func matchAny(branch string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if pattern == branch {
			return true
		}
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}
