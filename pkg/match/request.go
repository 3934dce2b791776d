package match

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Method matches the HTTP method, case-insensitively.
func Method(method string) *Matcher {
	m := strings.ToUpper(method)
	return &Matcher{kind: kindMethod, str: m, desc: fmt.Sprintf("method == %q", m)}
}

// Path matches the URL path exactly.
func Path(path string) *Matcher {
	return &Matcher{kind: kindPath, str: path, desc: fmt.Sprintf("path == %q", path)}
}

// PathPattern matches the URL path against a regular expression. The
// pattern is unanchored; anchor with ^ and $ for full-path matching.
func PathPattern(pattern string) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, constructionErr("PathPattern", pattern, err)
	}
	return &Matcher{kind: kindPathPattern, re: re, desc: fmt.Sprintf("path =~ %q", pattern)}, nil
}

// PathGlob matches the URL path against a doublestar glob, where "*"
// matches within one path segment and "**" spans segments, e.g.
// "/api/*/items/**".
func PathGlob(pattern string) (*Matcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, constructionErr("PathGlob", pattern, doublestar.ErrBadPattern)
	}
	return &Matcher{kind: kindPathGlob, glob: pattern, desc: fmt.Sprintf("path glob %q", pattern)}, nil
}

// Query matches when the named query parameter carries the given value.
// Other parameters, and other values of the same parameter, are ignored.
func Query(name, value string) *Matcher {
	return &Matcher{
		kind: kindQuery,
		name: name, value: value,
		desc: fmt.Sprintf("query[%q] == %q", name, value),
	}
}

// Header matches when the named header (case-insensitive) carries the
// given value. Other headers, and other values of the same header, are
// ignored.
func Header(name, value string) *Matcher {
	return &Matcher{
		kind: kindHeader,
		name: name, value: value,
		desc: fmt.Sprintf("header[%q] == %q", name, value),
	}
}
