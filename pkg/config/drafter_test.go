package config

import (
	"errors"
	"testing"
)

func TestResolve_Defaults(t *testing.T) {
	d, err := Resolve([]byte("template: \"$CHANGES\"\n"), "main")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(d.Branches) != 1 || d.Branches[0] != "main" {
		t.Errorf("Branches = %v, want [main]", d.Branches)
	}
	if d.ChangeTemplate != "* $TITLE (#$NUMBER) @$AUTHOR" {
		t.Errorf("ChangeTemplate = %q", d.ChangeTemplate)
	}
	if d.NoChangesTemplate != "* No changes" {
		t.Errorf("NoChangesTemplate = %q", d.NoChangesTemplate)
	}
	if d.VersionTemplate != "$MAJOR.$MINOR.$PATCH" {
		t.Errorf("VersionTemplate = %q", d.VersionTemplate)
	}
	if d.SortDirection != SortDescending {
		t.Errorf("SortDirection = %q, want %q", d.SortDirection, SortDescending)
	}
	if d.LabelVersioning.Enabled || d.LabelVersioning.AutoRelease {
		t.Error("label versioning should be disabled by default")
	}
	if d.AutoRelease() {
		t.Error("AutoRelease() should be false by default")
	}
	if got := d.LabelVersioning.MajorBumpLabels; len(got) != 1 || got[0] != "major" {
		t.Errorf("MajorBumpLabels = %v, want [major]", got)
	}
}

func TestResolve_Overrides(t *testing.T) {
	data := []byte(`
branches:
  - main
  - release/*
exclude-branches: release/legacy
template: |
  ## What's changed
  $CHANGES
change-template: "- $TITLE by @$AUTHOR"
categories:
  - title: Features
    labels: [feature, enhancement]
  - title: Fixes
    label: bug
exclude-labels: skip-changelog
replacers:
  - search: "/#(\\d+)/g"
    replace: "PR-$1"
sort-direction: ascending
label-versioning:
  enabled: true
  auto-release: true
`)

	d, err := Resolve(data, "main")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(d.Branches) != 2 || d.Branches[1] != "release/*" {
		t.Errorf("Branches = %v", d.Branches)
	}
	rules := d.BranchRules()
	if len(rules.Exclude) != 1 || rules.Exclude[0] != "release/legacy" {
		t.Errorf("BranchRules().Exclude = %v", rules.Exclude)
	}
	if d.ChangeTemplate != "- $TITLE by @$AUTHOR" {
		t.Errorf("ChangeTemplate = %q", d.ChangeTemplate)
	}
	// untouched keys keep their defaults
	if d.NoChangesTemplate != "* No changes" {
		t.Errorf("NoChangesTemplate = %q, want default", d.NoChangesTemplate)
	}
	if len(d.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2", len(d.Categories))
	}
	if got := d.Categories[1].AllLabels(); len(got) != 1 || got[0] != "bug" {
		t.Errorf("Categories[1].AllLabels() = %v, want [bug]", got)
	}
	if len(d.ExcludeLabels) != 1 || d.ExcludeLabels[0] != "skip-changelog" {
		t.Errorf("ExcludeLabels = %v", d.ExcludeLabels)
	}
	if len(d.CompiledReplacers()) != 1 {
		t.Errorf("len(CompiledReplacers()) = %d, want 1", len(d.CompiledReplacers()))
	}
	if d.SortDirection != SortAscending {
		t.Errorf("SortDirection = %q", d.SortDirection)
	}
	if !d.AutoRelease() {
		t.Error("AutoRelease() = false, want true")
	}
	// nested defaults survive a partial label-versioning block
	if got := d.LabelVersioning.PatchBumpLabels; len(got) != 1 || got[0] != "patch" {
		t.Errorf("PatchBumpLabels = %v, want [patch]", got)
	}
	if d.LabelVersioning.InitialVersion != "0.0.0" {
		t.Errorf("InitialVersion = %q, want 0.0.0", d.LabelVersioning.InitialVersion)
	}
}

func TestResolve_DefaultsAreNotShared(t *testing.T) {
	first, err := Resolve([]byte("template: x\nexclude-labels: [a]\n"), "main")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := Resolve([]byte("template: y\n"), "trunk")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(second.ExcludeLabels) != 0 {
		t.Errorf("second.ExcludeLabels = %v, want empty", second.ExcludeLabels)
	}
	if second.Branches[0] != "trunk" || first.Branches[0] != "main" {
		t.Errorf("Branches leaked between resolves: %v / %v", first.Branches, second.Branches)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantOption string
	}{
		{"missing template", "change-template: x\n", "template"},
		{"empty document", "", "template"},
		{"invalid sort direction", "template: x\nsort-direction: sideways\n", "sort-direction"},
		{"invalid replacer", "template: x\nreplacers:\n  - search: \"/([/\"\n    replace: y\n", "replacers"},
		{"invalid branch pattern", "template: x\nbranches: \"release/[\"\n", "branches"},
		{"invalid exclude pattern", "template: x\nexclude-branches: [\"a[\"]\n", "exclude-branches"},
		{"category without title", "template: x\ncategories:\n  - labels: [bug]\n", "categories"},
		{"malformed yaml", "template: [unclosed\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve([]byte(tt.data), "main")
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Resolve() error = %v, want *Error", err)
			}
			if cfgErr.Option != tt.wantOption {
				t.Errorf("Option = %q, want %q", cfgErr.Option, tt.wantOption)
			}
			if !IsConfigError(err) {
				t.Error("IsConfigError() = false")
			}
		})
	}
}

func TestResolve_MissingTemplateIsDistinguishable(t *testing.T) {
	_, err := Resolve([]byte("categories: []\n"), "main")
	if !errors.Is(err, ErrMissingTemplate) {
		t.Errorf("errors.Is(err, ErrMissingTemplate) = false for %v", err)
	}
}

func TestParseSortDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    SortDirection
		wantErr bool
	}{
		{"", SortDescending, false},
		{"ascending", SortAscending, false},
		{"descending", SortDescending, false},
		{"DESCENDING", "", true},
		{"random", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSortDirection(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortDirection(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
