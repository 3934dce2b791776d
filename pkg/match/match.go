// Package match provides composable request matchers for the mock server.
//
// A Matcher is a pure predicate over a *record.Request. Matchers form a
// closed set of variants built through the package constructors and are
// combined with All, Any and Not; Func is the escape hatch for arbitrary
// predicates. Evaluation is deterministic, side-effect free and safe to
// repeat: probing a request against many matchers never changes the
// request or the matchers.
//
// Constructors that take a pattern, schema, document or expression
// validate it eagerly and return a *ConstructionError, so a bad matcher
// fails at registration time rather than at dispatch time. Matchers that
// decode the request body (JSON, Form, JSONPath, JSONSchema, XML) report
// "no match" when the body does not decode; decoding failure is never an
// evaluation error.
package match

import (
	"bytes"
	"reflect"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/expect/pkg/record"
)

type kind int

const (
	kindMethod kind = iota
	kindPath
	kindPathPattern
	kindPathGlob
	kindQuery
	kindHeader
	kindBody
	kindBodyContains
	kindBodyPattern
	kindJSON
	kindForm
	kindJSONPath
	kindJSONSchema
	kindXML
	kindExpr
	kindAll
	kindAny
	kindNot
	kindFunc
)

// Matcher is a pure predicate over a request record.
type Matcher struct {
	kind kind
	desc string

	str      string          // method / path / substring, depending on kind
	name     string          // query or header name
	value    string          // query or header value
	bytes    []byte          // exact body
	re       *regexp.Regexp  // path or body pattern
	glob     string          // path glob
	jsonVal  any             // normalized expected JSON document
	form     map[string][]string
	jsonPath jp.Expr
	expected any             // expected JSONPath value, nil means existence
	hasExp   bool
	schema   *jsonschema.Schema
	xml      *etree.Element
	program  *vm.Program
	children []*Matcher
	fn       func(*record.Request) bool
}

// String describes the matcher; the description appears in verification
// failures and debug logs.
func (m *Matcher) String() string {
	if m == nil {
		return "<nil matcher>"
	}
	return m.desc
}

// Matches evaluates the matcher against a request record.
func (m *Matcher) Matches(req *record.Request) bool {
	if m == nil || req == nil {
		return false
	}
	switch m.kind {
	case kindMethod:
		return strings.EqualFold(m.str, req.Method)
	case kindPath:
		return req.Path == m.str
	case kindPathPattern:
		return m.re.MatchString(req.Path)
	case kindPathGlob:
		ok, err := doublestar.Match(m.glob, req.Path)
		return err == nil && ok
	case kindQuery:
		return containsValue(req.Query[m.name], m.value)
	case kindHeader:
		return containsValue(req.Header.Values(m.name), m.value)
	case kindBody:
		return bytes.Equal(req.Body, m.bytes)
	case kindBodyContains:
		return strings.Contains(string(req.Body), m.str)
	case kindBodyPattern:
		return m.re.Match(req.Body)
	case kindJSON:
		got, ok := decodeJSONBody(req.Body)
		return ok && reflect.DeepEqual(got, m.jsonVal)
	case kindForm:
		return matchForm(m.form, req.Body)
	case kindJSONPath:
		return m.matchJSONPath(req.Body)
	case kindJSONSchema:
		got, ok := decodeJSONBody(req.Body)
		return ok && m.schema.Validate(got) == nil
	case kindXML:
		return matchXML(m.xml, req.Body)
	case kindExpr:
		return m.matchExpr(req)
	case kindAll:
		for _, c := range m.children {
			if !c.Matches(req) {
				return false
			}
		}
		return true
	case kindAny:
		for _, c := range m.children {
			if c.Matches(req) {
				return true
			}
		}
		return false
	case kindNot:
		return !m.children[0].Matches(req)
	case kindFunc:
		return m.fn(req)
	}
	return false
}

// All matches when every child matches. Children are evaluated left to
// right with short-circuiting. All() with no children matches everything.
func All(children ...*Matcher) *Matcher {
	cs := compact(children)
	return &Matcher{kind: kindAll, children: cs, desc: joinDesc(cs, " && ")}
}

// Any matches when at least one child matches, evaluated left to right
// with short-circuiting. Any() with no children matches nothing.
func Any(children ...*Matcher) *Matcher {
	cs := compact(children)
	return &Matcher{kind: kindAny, children: cs, desc: joinDesc(cs, " || ")}
}

// Not inverts a matcher.
func Not(child *Matcher) *Matcher {
	if child == nil {
		child = Func("<nil>", func(*record.Request) bool { return false })
	}
	return &Matcher{kind: kindNot, children: []*Matcher{child}, desc: "!(" + child.String() + ")"}
}

// Func wraps an arbitrary predicate. The description is used for
// diagnostics in place of a structural one. The predicate must be pure:
// it may be probed against requests that end up matched elsewhere.
func Func(desc string, fn func(*record.Request) bool) *Matcher {
	if desc == "" {
		desc = "custom predicate"
	}
	return &Matcher{kind: kindFunc, fn: fn, desc: desc}
}

func compact(ms []*Matcher) []*Matcher {
	out := make([]*Matcher, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

func joinDesc(ms []*Matcher, sep string) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func containsValue(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
