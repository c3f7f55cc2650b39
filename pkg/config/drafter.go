package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/holon-run/drafter/pkg/branch"
	"github.com/holon-run/drafter/pkg/template"
)

// SortDirection orders pull requests by merge time.
type SortDirection string

const (
	// SortAscending lists the oldest merge first
	SortAscending SortDirection = "ascending"
	// SortDescending lists the newest merge first
	SortDescending SortDirection = "descending"
)

// ParseSortDirection validates a sort direction. An empty value selects
// SortDescending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(s) {
	case "":
		return SortDescending, nil
	case SortAscending, SortDescending:
		return SortDirection(s), nil
	default:
		return "", &Error{
			Option: "sort-direction",
			Reason: fmt.Sprintf("%q is not one of %q, %q", s, SortAscending, SortDescending),
		}
	}
}

// StringList accepts either a single YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// Category groups pull requests that carry any of its labels.
type Category struct {
	Title  string     `yaml:"title"`
	Label  string     `yaml:"label,omitempty"`
	Labels StringList `yaml:"labels,omitempty"`
}

// AllLabels returns the labels of the category, including the singular form.
func (c Category) AllLabels() []string {
	if c.Label == "" {
		return c.Labels
	}
	labels := make([]string, 0, len(c.Labels)+1)
	labels = append(labels, c.Label)
	return append(labels, c.Labels...)
}

// LabelVersioning configures label-driven version computation.
type LabelVersioning struct {
	Enabled         bool       `yaml:"enabled"`
	AutoRelease     bool       `yaml:"auto-release"`
	InitialVersion  string     `yaml:"initial-version"`
	MajorBumpLabels StringList `yaml:"major-bump-labels"`
	MinorBumpLabels StringList `yaml:"minor-bump-labels"`
	PatchBumpLabels StringList `yaml:"patch-bump-labels"`
}

// Drafter holds the resolved options of one repository. A Drafter returned by
// Resolve is complete and validated; it is not modified afterwards.
type Drafter struct {
	Branches          StringList              `yaml:"branches"`
	ExcludeBranches   StringList              `yaml:"exclude-branches"`
	NameTemplate      string                  `yaml:"name-template"`
	TagTemplate       string                  `yaml:"tag-template"`
	Template          string                  `yaml:"template"`
	ChangeTemplate    string                  `yaml:"change-template"`
	NoChangesTemplate string                  `yaml:"no-changes-template"`
	VersionTemplate   string                  `yaml:"version-template"`
	CategoryTemplate  string                  `yaml:"category-template"`
	Categories        []Category              `yaml:"categories"`
	ExcludeLabels     StringList              `yaml:"exclude-labels"`
	Replacers         []template.ReplacerSpec `yaml:"replacers"`
	SortDirection     SortDirection           `yaml:"sort-direction"`
	LabelVersioning   LabelVersioning         `yaml:"label-versioning"`

	replacers []template.Replacer
}

// Defaults returns the built-in options for a repository whose default
// branch is defaultBranch. Every call returns a fresh value.
func Defaults(defaultBranch string) *Drafter {
	return &Drafter{
		Branches:          StringList{defaultBranch},
		ChangeTemplate:    "* $TITLE (#$NUMBER) @$AUTHOR",
		NoChangesTemplate: "* No changes",
		VersionTemplate:   "$MAJOR.$MINOR.$PATCH",
		CategoryTemplate:  "## $TITLE",
		Categories:        []Category{},
		ExcludeLabels:     StringList{},
		Replacers:         []template.ReplacerSpec{},
		SortDirection:     SortDescending,
		LabelVersioning: LabelVersioning{
			Enabled:         false,
			AutoRelease:     false,
			InitialVersion:  "0.0.0",
			MajorBumpLabels: StringList{"major"},
			MinorBumpLabels: StringList{"minor"},
			PatchBumpLabels: StringList{"patch"},
		},
	}
}

// Resolve merges the repository's YAML options over the defaults and
// validates the result. Keys absent from data keep their default, including
// individual keys nested under label-versioning. Any problem is reported as
// an *Error.
func Resolve(data []byte, defaultBranch string) (*Drafter, error) {
	d := Defaults(defaultBranch)

	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, d); err != nil {
			return nil, &Error{Reason: "cannot parse YAML", Err: err}
		}
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Drafter) validate() error {
	if d.Template == "" {
		return &Error{Option: "template", Err: ErrMissingTemplate}
	}

	dir, err := ParseSortDirection(string(d.SortDirection))
	if err != nil {
		return err
	}
	d.SortDirection = dir

	replacers, err := template.CompileReplacers(d.Replacers)
	if err != nil {
		return &Error{Option: "replacers", Err: err}
	}
	d.replacers = replacers

	for _, pattern := range d.Branches {
		if err := branch.ValidatePattern(pattern); err != nil {
			return &Error{Option: "branches", Err: err}
		}
	}
	for _, pattern := range d.ExcludeBranches {
		if err := branch.ValidatePattern(pattern); err != nil {
			return &Error{Option: "exclude-branches", Err: err}
		}
	}

	for i, c := range d.Categories {
		if c.Title == "" {
			return &Error{Option: "categories", Reason: fmt.Sprintf("category #%d has no title", i+1)}
		}
	}

	return nil
}

// CompiledReplacers returns the validated replacers in declaration order.
func (d *Drafter) CompiledReplacers() []template.Replacer {
	return d.replacers
}

// BranchRules returns the include and exclude patterns for the branch filter.
func (d *Drafter) BranchRules() branch.Rules {
	return branch.Rules{
		Include: d.Branches,
		Exclude: d.ExcludeBranches,
	}
}

// AutoRelease reports whether drafts are published right after being written.
func (d *Drafter) AutoRelease() bool {
	return d.LabelVersioning.Enabled && d.LabelVersioning.AutoRelease
}
