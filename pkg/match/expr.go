package match

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/getmockd/expect/pkg/record"
)

// Expr matches when the given expr-lang expression evaluates to true
// against the request. The expression sees:
//
//	method  string                 request method, e.g. "POST"
//	path    string                 URL path
//	query   map[string][]string    decoded query parameters
//	header  map[string][]string    headers under canonical keys
//	body    string                 raw body
//	json    any                    JSON-decoded body, nil when not JSON
//
// Example: `method == "POST" && json?.kind == "widget"`.
// Compilation failures surface here; runtime evaluation errors make the
// matcher report no match.
func Expr(code string) (*Matcher, error) {
	program, err := expr.Compile(code, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, constructionErr("Expr", code, err)
	}
	return &Matcher{kind: kindExpr, program: program, desc: fmt.Sprintf("expr %q", code)}, nil
}

func (m *Matcher) matchExpr(req *record.Request) bool {
	env := map[string]any{
		"method": req.Method,
		"path":   req.Path,
		"query":  map[string][]string(req.Query),
		"header": map[string][]string(req.Header),
		"body":   string(req.Body),
	}
	if data, ok := decodeJSONBody(req.Body); ok {
		env["json"] = data
	} else {
		env["json"] = nil
	}
	out, err := expr.Run(m.program, env)
	if err != nil {
		return false
	}
	result, ok := out.(bool)
	return ok && result
}
