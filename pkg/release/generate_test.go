package release

import (
	"strings"
	"testing"
	"time"

	"github.com/holon-run/drafter/pkg/config"
	"github.com/holon-run/drafter/pkg/version"
)

func mustResolve(t *testing.T, yaml string) *config.Drafter {
	t.Helper()
	cfg, err := config.Resolve([]byte(yaml), "main")
	if err != nil {
		t.Fatalf("config.Resolve() error = %v", err)
	}
	return cfg
}

func TestGenerate_LabelVersioningScenario(t *testing.T) {
	cfg := mustResolve(t, `
template: "## $VERSION\n$CHANGES"
label-versioning:
  enabled: true
`)
	last := &Release{TagName: "v1.2.0", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	prs := []PullRequest{
		{Number: 11, Title: "Fix typo", AuthorLogin: "bob", Labels: []string{"patch"}, MergeCommitSHA: "b"},
		{Number: 10, Title: "New option", AuthorLogin: "alice", Labels: []string{"minor"}, MergeCommitSHA: "a"},
	}

	info := Generate(Input{PullRequests: prs, Config: cfg, LastRelease: last})

	if info.Version != "1.3.0" {
		t.Errorf("Version = %q, want 1.3.0", info.Version)
	}
	if info.Bump != version.BumpMinor {
		t.Errorf("Bump = %s, want minor", info.Bump)
	}
	if info.Name != "v1.3.0" || info.Tag != "v1.3.0" {
		t.Errorf("Name/Tag = %q/%q, want v1.3.0/v1.3.0", info.Name, info.Tag)
	}
	want := "## 1.3.0\n* Fix typo (#11) @bob\n* New option (#10) @alice"
	if info.Body != want {
		t.Errorf("Body = %q, want %q", info.Body, want)
	}
}

func TestGenerate_NoPriorRelease(t *testing.T) {
	cfg := mustResolve(t, `
template: "$CHANGES"
label-versioning:
  enabled: true
  initial-version: "0.1.0"
`)
	prs := []PullRequest{{Number: 1, Title: "First", AuthorLogin: "a", Labels: []string{"patch"}}}

	info := Generate(Input{PullRequests: prs, Config: cfg})

	if info.Version != "0.1.1" {
		t.Errorf("Version = %q, want 0.1.1", info.Version)
	}
}

func TestGenerate_ExcludedLabel(t *testing.T) {
	cfg := mustResolve(t, `
template: "$CHANGES"
exclude-labels: [skip-changelog]
categories:
  - title: Breaking
    labels: [major]
label-versioning:
  enabled: true
`)
	last := &Release{TagName: "v2.0.0"}
	prs := []PullRequest{
		{Number: 3, Title: "Hidden rewrite", AuthorLogin: "x", Labels: []string{"skip-changelog", "major"}},
	}

	info := Generate(Input{PullRequests: prs, Config: cfg, LastRelease: last})

	if strings.Contains(info.Body, "Hidden rewrite") {
		t.Errorf("Body contains excluded PR: %q", info.Body)
	}
	if info.Bump != version.BumpNone {
		t.Errorf("Bump = %s, want none", info.Bump)
	}
	if info.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", info.Version)
	}
	if info.Body != "## Breaking\n\n* No changes" {
		t.Errorf("Body = %q", info.Body)
	}
}

func TestGenerate_Categories(t *testing.T) {
	cfg := mustResolve(t, `
template: "$CHANGES"
categories:
  - title: Features
    labels: [feature]
  - title: Fixes
    labels: [bug]
`)
	prs := []PullRequest{
		{Number: 1, Title: "Add X", AuthorLogin: "a", Labels: []string{"feature", "bug"}},
		{Number: 2, Title: "Chore", AuthorLogin: "b"},
	}

	info := Generate(Input{PullRequests: prs, Config: cfg})

	want := "* Chore (#2) @b\n\n## Features\n\n* Add X (#1) @a\n\n## Fixes\n\n* No changes"
	if info.Body != want {
		t.Errorf("Body = %q, want %q", info.Body, want)
	}
}

func TestGenerate_NoChangesAtAll(t *testing.T) {
	cfg := mustResolve(t, `template: "Changes:\n$CHANGES"`)

	info := Generate(Input{Config: cfg})

	if info.Body != "Changes:\n* No changes" {
		t.Errorf("Body = %q", info.Body)
	}
	if info.Name != "" || info.Tag != "" {
		t.Errorf("Name/Tag = %q/%q, want empty without label versioning", info.Name, info.Tag)
	}
}

func TestResolveBump(t *testing.T) {
	lv := config.Defaults("main").LabelVersioning

	tests := []struct {
		name string
		prs  []PullRequest
		want version.BumpKind
	}{
		{"no labels", []PullRequest{{Labels: nil}}, version.BumpNone},
		{"patch only", []PullRequest{{Labels: []string{"patch"}}}, version.BumpPatch},
		{"minor beats patch", []PullRequest{{Labels: []string{"patch"}}, {Labels: []string{"minor"}}}, version.BumpMinor},
		{"patch after minor", []PullRequest{{Labels: []string{"minor"}}, {Labels: []string{"patch"}}}, version.BumpMinor},
		{"major and patch on one PR", []PullRequest{{Labels: []string{"patch", "major"}}}, version.BumpMajor},
		{"labels are case-sensitive", []PullRequest{{Labels: []string{"Major"}}}, version.BumpNone},
		{"empty list", nil, version.BumpNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBump(tt.prs, lv); got != tt.want {
				t.Errorf("ResolveBump() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGenerate_ReplacersSeeRenderedText(t *testing.T) {
	cfg := mustResolve(t, `
template: "$CHANGES"
replacers:
  - search: "/\\(#(\\d+)\\)/g"
    replace: "([#$1](https://github.com/o/r/pull/$1))"
  - search: "@octocat"
    replace: "the cat"
`)
	prs := []PullRequest{{Number: 42, Title: "Meow", AuthorLogin: "octocat"}}

	info := Generate(Input{PullRequests: prs, Config: cfg})

	want := "* Meow ([#42](https://github.com/o/r/pull/42)) the cat"
	if info.Body != want {
		t.Errorf("Body = %q, want %q", info.Body, want)
	}
}

func TestGenerate_TitleInjection(t *testing.T) {
	cfg := mustResolve(t, `template: "$CHANGES by $CONTRIBUTORS"`)
	prs := []PullRequest{{Number: 1, Title: "$CONTRIBUTORS $NUMBER", AuthorLogin: "eve"}}

	info := Generate(Input{PullRequests: prs, Config: cfg})

	want := "* $CONTRIBUTORS $NUMBER (#1) @eve by @eve"
	if info.Body != want {
		t.Errorf("Body = %q, want %q", info.Body, want)
	}
}

func TestGenerate_VersionPlaceholders(t *testing.T) {
	cfg := mustResolve(t, `
template: "$PREVIOUS_TAG -> $NEXT_MAJOR_VERSION | $NEXT_MINOR_VERSION | $NEXT_PATCH_VERSION"
name-template: "Release $VERSION"
tag-template: "release-$MAJOR.$MINOR"
`)
	info := Generate(Input{Config: cfg, LastRelease: &Release{TagName: "v1.4.2"}})

	if info.Body != "v1.4.2 -> 2.0.0 | 1.5.0 | 1.4.3" {
		t.Errorf("Body = %q", info.Body)
	}
	if info.Name != "Release 1.4.2" {
		t.Errorf("Name = %q, want %q", info.Name, "Release 1.4.2")
	}
	if info.Tag != "release-1.4" {
		t.Errorf("Tag = %q, want %q", info.Tag, "release-1.4")
	}
}

func TestGenerate_OpaqueBaseline(t *testing.T) {
	cfg := mustResolve(t, `
template: "$VERSION $MAJOR"
label-versioning:
  enabled: true
`)
	prs := []PullRequest{{Number: 1, Labels: []string{"major"}}}

	info := Generate(Input{PullRequests: prs, Config: cfg, LastRelease: &Release{TagName: "nightly-2024"}})

	if info.Version != "nightly-2024" {
		t.Errorf("Version = %q, want opaque baseline", info.Version)
	}
	if info.Body != "nightly-2024 $MAJOR" {
		t.Errorf("Body = %q", info.Body)
	}
}

func TestGenerate_Contributors(t *testing.T) {
	cfg := mustResolve(t, `
template: "$CONTRIBUTORS"
exclude-labels: [bot]
`)
	prs := []PullRequest{
		{Number: 1, AuthorLogin: "zoe", MergeCommitSHA: "m1"},
		{Number: 2, AuthorLogin: "dependabot", MergeCommitSHA: "m2", Labels: []string{"bot"}},
	}
	commits := []Commit{
		{SHA: "m1", AuthorLogin: "zoe"},
		{SHA: "m2", AuthorLogin: "dependabot"},
		{SHA: "c3", AuthorLogin: "adam"},
		{SHA: "c4", AuthorLogin: "mia"},
		{SHA: "c5", AuthorLogin: ""},
	}

	info := Generate(Input{Commits: commits, PullRequests: prs, Config: cfg})

	if info.Body != "@adam, @mia and @zoe" {
		t.Errorf("Body = %q", info.Body)
	}

	empty := Generate(Input{Config: cfg})
	if empty.Body != "No contributors" {
		t.Errorf("Body = %q, want %q", empty.Body, "No contributors")
	}
}
