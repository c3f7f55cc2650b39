package template

import (
	"fmt"
	"regexp"
	"strings"
)

// ReplacerSpec is a user-defined search/replace pair as written in the
// configuration file.
//
// Search is a regular expression, either bare or written as /pattern/flags.
// Only the first match is replaced unless the g flag is given. Other supported
// flags are i (case-insensitive), m (multi-line) and s (dot matches newline).
type ReplacerSpec struct {
	Search  string `yaml:"search"`
	Replace string `yaml:"replace"`
}

// Replacer is a compiled ReplacerSpec.
type Replacer struct {
	spec    ReplacerSpec
	re      *regexp.Regexp
	expand  string
	allOnce bool
}

// Spec returns the definition the replacer was compiled from.
func (r Replacer) Spec() ReplacerSpec {
	return r.spec
}

// ReplacerError reports an invalid replacer definition.
type ReplacerError struct {
	Index  int
	Search string
	Err    error
}

// Error returns the error message
func (e *ReplacerError) Error() string {
	return fmt.Sprintf("replacer #%d (search %q): %v", e.Index+1, e.Search, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ReplacerError) Unwrap() error {
	return e.Err
}

var regexLiteral = regexp.MustCompile(`^/(.+)/([a-z]*)$`)

// CompileReplacer validates and compiles a single replacer definition.
func CompileReplacer(spec ReplacerSpec) (Replacer, error) {
	if spec.Search == "" {
		return Replacer{}, fmt.Errorf("search must not be empty")
	}

	pattern := spec.Search
	all := false

	if m := regexLiteral.FindStringSubmatch(spec.Search); m != nil {
		pattern = m[1]

		var inline string
		for _, flag := range m[2] {
			switch flag {
			case 'g':
				all = true
			case 'i', 'm', 's':
				if !strings.ContainsRune(inline, flag) {
					inline += string(flag)
				}
			case 'u':
				// Go regular expressions are always Unicode aware
			default:
				return Replacer{}, fmt.Errorf("unsupported flag %q", flag)
			}
		}
		if inline != "" {
			pattern = "(?" + inline + ")" + pattern
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Replacer{}, err
	}

	return Replacer{
		spec:    spec,
		re:      re,
		expand:  translateReplacement(spec.Replace),
		allOnce: all,
	}, nil
}

// CompileReplacers compiles every definition in order and fails on the first
// invalid one.
func CompileReplacers(specs []ReplacerSpec) ([]Replacer, error) {
	compiled := make([]Replacer, 0, len(specs))
	for i, spec := range specs {
		r, err := CompileReplacer(spec)
		if err != nil {
			return nil, &ReplacerError{Index: i, Search: spec.Search, Err: err}
		}
		compiled = append(compiled, r)
	}
	return compiled, nil
}

// Apply runs the replacer against text.
func (r Replacer) Apply(text string) string {
	if r.re == nil {
		return text
	}
	if r.allOnce {
		return r.re.ReplaceAllString(text, r.expand)
	}

	loc := r.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	var out []byte
	out = append(out, text[:loc[0]]...)
	out = r.re.ExpandString(out, r.expand, text, loc)
	out = append(out, text[loc[1]:]...)
	return string(out)
}

// ApplyReplacers applies each replacer to the result of the previous one.
func ApplyReplacers(text string, replacers []Replacer) string {
	for _, r := range replacers {
		text = r.Apply(text)
	}
	return text
}

// translateReplacement converts $1 and $& group references into the ${1}
// form understood by regexp.Expand. Any other "$" is kept literal.
func translateReplacement(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			b.WriteString("$$")
			continue
		}

		next := s[i+1]
		switch {
		case next == '$':
			b.WriteString("$$")
			i++
		case next == '&':
			b.WriteString("${0}")
			i++
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			b.WriteString("${" + s[i+1:j] + "}")
			i = j - 1
		default:
			b.WriteString("$$")
		}
	}
	return b.String()
}
