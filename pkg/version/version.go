// Package version implements the major.minor.patch arithmetic used to propose
// the next release number.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// BumpKind names the field of a version that a release increments.
type BumpKind int

const (
	// BumpNone keeps the previous version.
	BumpNone BumpKind = iota
	// BumpPatch increments the patch field.
	BumpPatch
	// BumpMinor increments the minor field and resets patch.
	BumpMinor
	// BumpMajor increments the major field and resets minor and patch.
	BumpMajor
)

// String returns the lower-case name of the bump kind.
func (k BumpKind) String() string {
	switch k {
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BumpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Version is a parsed major.minor.patch triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

func fromSemver(sv semver.Version) Version {
	return Version{Major: int(sv.Major()), Minor: int(sv.Minor()), Patch: int(sv.Patch())}
}

func (v Version) semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
}

// String formats the version as major.minor.patch.
func (v Version) String() string {
	return v.semver().String()
}

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool {
	return v.semver().LessThan(other.semver())
}

// ParseError reports a version string that is not three non-negative integers.
type ParseError struct {
	Input  string
	Reason string
}

// Error returns the error message
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse version %q: %s", e.Input, e.Reason)
}

// Parse parses "major.minor.patch", optionally prefixed with a single "v".
// Prerelease and build suffixes are rejected.
func Parse(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")

	// StrictNewVersion requires all three fields; NewVersion would fill them in
	sv, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Version{}, &ParseError{Input: s, Reason: err.Error()}
	}
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, &ParseError{Input: s, Reason: "prerelease and build suffixes are not supported"}
	}
	return fromSemver(*sv), nil
}

// Increment bumps the designated field of v and zeroes every lower field.
func Increment(v Version, kind BumpKind) Version {
	sv := v.semver()
	switch kind {
	case BumpMajor:
		return fromSemver(sv.IncMajor())
	case BumpMinor:
		return fromSemver(sv.IncMinor())
	case BumpPatch:
		return fromSemver(sv.IncPatch())
	default:
		return v
	}
}

// Resolved is the outcome of deriving the next version from a baseline.
type Resolved struct {
	// Previous is the parsed baseline, valid only when Opaque is empty.
	Previous Version
	// Next is the proposed version, valid only when Opaque is empty.
	Next Version
	// Opaque holds the raw baseline when it could not be parsed; such a
	// version is carried through unchanged.
	Opaque string
}

// IsOpaque reports whether the baseline could not be parsed.
func (r Resolved) IsOpaque() bool {
	return r.Opaque != ""
}

// String returns the next version, or the opaque baseline.
func (r Resolved) String() string {
	if r.IsOpaque() {
		return r.Opaque
	}
	return r.Next.String()
}

// Resolve derives the next version from the previous release tag. An empty
// previous tag starts from initial. Unparsable input falls back to an opaque
// version that is never incremented.
func Resolve(previous, initial string, kind BumpKind) Resolved {
	base := previous
	if base == "" {
		base = initial
	}
	if base == "" {
		base = "0.0.0"
	}

	v, err := Parse(base)
	if err != nil {
		return Resolved{Opaque: base}
	}
	return Resolved{Previous: v, Next: Increment(v, kind)}
}
