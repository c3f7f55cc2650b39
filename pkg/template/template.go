// Package template renders release documents from plain-text templates.
//
// Templates contain literal upper-case placeholders such as $TITLE or
// $NEXT_PATCH_VERSION. Substitution is a single pass over a fixed token set:
// substituted values are never scanned again, so a pull request titled
// "$CHANGES" is rendered as-is instead of expanding into the document.
package template

import "strings"

// Placeholder names recognized by the drafter. Templates reference them with a
// leading "$".
const (
	Major            = "MAJOR"
	Minor            = "MINOR"
	Patch            = "PATCH"
	Title            = "TITLE"
	Number           = "NUMBER"
	Author           = "AUTHOR"
	Changes          = "CHANGES"
	Contributors     = "CONTRIBUTORS"
	PreviousTag      = "PREVIOUS_TAG"
	Version          = "VERSION"
	NextMajorVersion = "NEXT_MAJOR_VERSION"
	NextMinorVersion = "NEXT_MINOR_VERSION"
	NextPatchVersion = "NEXT_PATCH_VERSION"
)

// Variables maps placeholder names (without the "$") to their values.
type Variables map[string]string

// Render replaces every "$NAME" in tmpl whose NAME is a key of vars. A name
// runs until the first byte that is not an upper-case letter or underscore, so
// $PATCHES is not $PATCH. Unknown placeholders are left verbatim.
func Render(tmpl string, vars Variables) string {
	if len(vars) == 0 || !strings.Contains(tmpl, "$") {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); {
		if tmpl[i] != '$' {
			b.WriteByte(tmpl[i])
			i++
			continue
		}
		j := i + 1
		for j < len(tmpl) && isNameByte(tmpl[j]) {
			j++
		}
		if value, ok := vars[tmpl[i+1:j]]; ok && j > i+1 {
			b.WriteString(value)
			i = j
			continue
		}
		b.WriteByte('$')
		i++
	}
	return b.String()
}

func isNameByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || c == '_'
}
