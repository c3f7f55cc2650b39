package release

import (
	"sort"
	"strconv"
	"strings"

	"github.com/holon-run/drafter/pkg/config"
	"github.com/holon-run/drafter/pkg/template"
	"github.com/holon-run/drafter/pkg/version"
)

const noContributors = "No contributors"

// Input is everything Generate needs to render a release.
type Input struct {
	// Commits is the commit window since the baseline
	Commits []Commit
	// PullRequests are the matched pull requests, already sorted
	PullRequests []PullRequest
	// Config is the resolved drafter options
	Config *config.Drafter
	// LastRelease is the baseline, nil when nothing was published yet
	LastRelease *Release
}

type section struct {
	title string
	lines []string
}

// Generate renders the release name, tag and body. It never fails: a
// template that references unknown placeholders renders them verbatim.
func Generate(in Input) Info {
	cfg := in.Config

	included := make([]PullRequest, 0, len(in.PullRequests))
	for _, pr := range in.PullRequests {
		if !pr.HasAnyLabel(cfg.ExcludeLabels) {
			included = append(included, pr)
		}
	}

	bump := version.BumpNone
	if cfg.LabelVersioning.Enabled {
		bump = ResolveBump(included, cfg.LabelVersioning)
	}

	previousTag := ""
	if in.LastRelease != nil {
		previousTag = in.LastRelease.TagName
	}
	resolved := version.Resolve(previousTag, cfg.LabelVersioning.InitialVersion, bump)

	vars := versionVariables(resolved, cfg.VersionTemplate)
	vars[template.PreviousTag] = previousTag
	vars[template.Changes] = renderChanges(included, cfg)
	vars[template.Contributors] = renderContributors(in.Commits, in.PullRequests, included)

	nameTmpl, tagTmpl := cfg.NameTemplate, cfg.TagTemplate
	if cfg.LabelVersioning.Enabled {
		if nameTmpl == "" {
			nameTmpl = "v$" + template.Version
		}
		if tagTmpl == "" {
			tagTmpl = "v$" + template.Version
		}
	}

	body := template.Render(cfg.Template, vars)
	body = template.ApplyReplacers(body, cfg.CompiledReplacers())

	return Info{
		Name:    template.Render(nameTmpl, vars),
		Tag:     template.Render(tagTmpl, vars),
		Body:    body,
		Version: vars[template.Version],
		Bump:    bump,
	}
}

// ResolveBump scans the labels of prs and returns the highest tier found.
// Precedence is major > minor > patch > none, also within a single pull
// request carrying labels of several tiers.
func ResolveBump(prs []PullRequest, lv config.LabelVersioning) version.BumpKind {
	bump := version.BumpNone
	for _, pr := range prs {
		switch {
		case pr.HasAnyLabel(lv.MajorBumpLabels):
			return version.BumpMajor
		case pr.HasAnyLabel(lv.MinorBumpLabels):
			bump = version.BumpMinor
		case pr.HasAnyLabel(lv.PatchBumpLabels):
			if bump < version.BumpPatch {
				bump = version.BumpPatch
			}
		}
	}
	return bump
}

// versionVariables returns the version placeholders. An opaque baseline only
// provides $VERSION; the numeric fields stay unresolved.
func versionVariables(resolved version.Resolved, versionTmpl string) template.Variables {
	vars := template.Variables{}
	if resolved.IsOpaque() {
		vars[template.Version] = resolved.Opaque
		return vars
	}

	format := func(v version.Version) string {
		return template.Render(versionTmpl, fieldVariables(v))
	}

	for name, value := range fieldVariables(resolved.Next) {
		vars[name] = value
	}
	vars[template.Version] = format(resolved.Next)
	vars[template.NextMajorVersion] = format(version.Increment(resolved.Previous, version.BumpMajor))
	vars[template.NextMinorVersion] = format(version.Increment(resolved.Previous, version.BumpMinor))
	vars[template.NextPatchVersion] = format(version.Increment(resolved.Previous, version.BumpPatch))
	return vars
}

func fieldVariables(v version.Version) template.Variables {
	return template.Variables{
		template.Major: strconv.Itoa(v.Major),
		template.Minor: strconv.Itoa(v.Minor),
		template.Patch: strconv.Itoa(v.Patch),
	}
}

// renderChanges groups prs into the configured categories and renders them.
// Pull requests matching no category come first, without a heading, and only
// when there are some. A configured category left empty renders the
// no-changes line so the document keeps the same structure across runs.
func renderChanges(prs []PullRequest, cfg *config.Drafter) string {
	uncategorized := []string{}
	sections := make([]section, len(cfg.Categories))
	for i, c := range cfg.Categories {
		sections[i].title = c.Title
	}

	for _, pr := range prs {
		line := template.Render(cfg.ChangeTemplate, template.Variables{
			template.Title:  pr.Title,
			template.Number: strconv.Itoa(pr.Number),
			template.Author: pr.AuthorLogin,
		})

		placed := false
		for i, c := range cfg.Categories {
			if pr.HasAnyLabel(c.AllLabels()) {
				sections[i].lines = append(sections[i].lines, line)
				placed = true
				break
			}
		}
		if !placed {
			uncategorized = append(uncategorized, line)
		}
	}

	if len(sections) == 0 && len(uncategorized) == 0 {
		return cfg.NoChangesTemplate
	}

	var blocks []string
	if len(uncategorized) > 0 {
		blocks = append(blocks, strings.Join(uncategorized, "\n"))
	}
	for _, s := range sections {
		heading := template.Render(cfg.CategoryTemplate, template.Variables{template.Title: s.title})
		lines := cfg.NoChangesTemplate
		if len(s.lines) > 0 {
			lines = strings.Join(s.lines, "\n")
		}
		blocks = append(blocks, heading+"\n\n"+lines)
	}
	return strings.Join(blocks, "\n\n")
}

// renderContributors lists the authors of the included pull requests and of
// commits that no pull request introduced.
func renderContributors(commits []Commit, all, included []PullRequest) string {
	fromPR := make(map[string]bool, len(all))
	for _, pr := range all {
		if pr.MergeCommitSHA != "" {
			fromPR[pr.MergeCommitSHA] = true
		}
	}

	logins := make(map[string]bool)
	for _, pr := range included {
		if pr.AuthorLogin != "" {
			logins[pr.AuthorLogin] = true
		}
	}
	for _, c := range commits {
		if !fromPR[c.SHA] && c.AuthorLogin != "" {
			logins[c.AuthorLogin] = true
		}
	}

	if len(logins) == 0 {
		return noContributors
	}

	names := make([]string, 0, len(logins))
	for login := range logins {
		names = append(names, "@"+login)
	}
	sort.Strings(names)

	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
