package ingest

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// Filter selects classes by include and exclude patterns. Patterns use
// "." between package segments, "*" for any run of characters and "?" for
// a single character, and match the end of a class path.
type Filter struct {
	includes []glob.Glob
	excludes []glob.Glob
}

// NewFilter compiles the patterns. Empty includes select every class.
func NewFilter(includes, excludes []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.includes, err = compilePatterns(includes); err != nil {
		return nil, err
	}
	if f.excludes, err = compilePatterns(excludes); err != nil {
		return nil, err
	}
	return f, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(classPattern(p))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid class pattern %q", p)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// classPattern rewrites a dotted pattern into a glob over class paths. Only
// "*" and "?" keep a special meaning.
func classPattern(p string) string {
	var b strings.Builder
	b.WriteString("*")
	for _, r := range p {
		switch r {
		case '*', '?':
			b.WriteRune(r)
		case '.':
			b.WriteRune('/')
		default:
			b.WriteString(glob.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// IsEmpty reports whether the filter has no patterns at all.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.includes) == 0 && len(f.excludes) == 0)
}

// IncludesClass reports whether a class path such as "com/acme/Foo" passes
// the filter. Backslashes are treated as separators.
func (f *Filter) IncludesClass(classPath string) bool {
	if f.IsEmpty() {
		return true
	}
	classPath = strings.ReplaceAll(classPath, "\\", "/")
	return f.included(classPath) && !matchAny(f.excludes, classPath)
}

func (f *Filter) included(classPath string) bool {
	if len(f.includes) == 0 {
		return true
	}
	return matchAny(f.includes, classPath)
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
