package match

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/ohler55/ojg/jp"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Body matches the raw request body byte for byte.
func Body(body []byte) *Matcher {
	return &Matcher{kind: kindBody, bytes: body, desc: fmt.Sprintf("body == %s", truncate(string(body)))}
}

// BodyString matches the request body against a string, byte for byte.
func BodyString(body string) *Matcher {
	return Body([]byte(body))
}

// BodyContains matches when the request body contains the substring.
func BodyContains(substr string) *Matcher {
	return &Matcher{kind: kindBodyContains, str: substr, desc: fmt.Sprintf("body contains %s", truncate(substr))}
}

// BodyPattern matches the request body against a regular expression.
func BodyPattern(pattern string) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, constructionErr("BodyPattern", pattern, err)
	}
	return &Matcher{kind: kindBodyPattern, re: re, desc: fmt.Sprintf("body =~ %q", pattern)}, nil
}

// JSON matches when the request body decodes to the same JSON value as
// doc. Comparison is structural: key order and whitespace are irrelevant.
// A body that is not valid JSON does not match.
func JSON(doc string) (*Matcher, error) {
	var want any
	if err := json.Unmarshal([]byte(doc), &want); err != nil {
		return nil, constructionErr("JSON", doc, err)
	}
	return &Matcher{kind: kindJSON, jsonVal: want, desc: fmt.Sprintf("json body == %s", truncate(doc))}, nil
}

// Form matches when the request body url-decodes to exactly the given
// values. A body that does not decode as a form does not match.
func Form(values url.Values) *Matcher {
	return &Matcher{
		kind: kindForm,
		form: values,
		desc: fmt.Sprintf("form body == %q", values.Encode()),
	}
}

// JSONPath matches when evaluating path against the JSON-decoded body
// yields expected. A nil expected turns the matcher into an existence
// check: the path must select at least one value. A body that is not
// valid JSON does not match.
func JSONPath(path string, expected any) (*Matcher, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, constructionErr("JSONPath", path, err)
	}
	m := &Matcher{kind: kindJSONPath, jsonPath: x}
	if expected == nil {
		m.desc = fmt.Sprintf("json body has path %q", path)
		return m, nil
	}
	want, err := normalizeJSON(expected)
	if err != nil {
		return nil, constructionErr("JSONPath", path, err)
	}
	m.expected = want
	m.hasExp = true
	m.desc = fmt.Sprintf("json body path %q == %v", path, expected)
	return m, nil
}

// JSONSchema matches when the JSON-decoded body validates against the
// given JSON Schema document. A body that is not valid JSON, or that
// fails validation, does not match.
func JSONSchema(schema string) (*Matcher, error) {
	compiled, err := jsonschema.CompileString("matcher.schema.json", schema)
	if err != nil {
		return nil, constructionErr("JSONSchema", schema, err)
	}
	return &Matcher{kind: kindJSONSchema, schema: compiled, desc: "json body matches schema"}, nil
}

// XML matches when the request body parses to the same XML document as
// doc, ignoring insignificant whitespace and attribute order. A body
// that is not well-formed XML does not match.
func XML(doc string) (*Matcher, error) {
	parsed := etree.NewDocument()
	if err := parsed.ReadFromString(doc); err != nil {
		return nil, constructionErr("XML", doc, err)
	}
	root := parsed.Root()
	if root == nil {
		return nil, constructionErr("XML", doc, fmt.Errorf("document has no root element"))
	}
	return &Matcher{kind: kindXML, xml: root, desc: fmt.Sprintf("xml body == %s", truncate(doc))}, nil
}

func (m *Matcher) matchJSONPath(body []byte) bool {
	data, ok := decodeJSONBody(body)
	if !ok {
		return false
	}
	results := m.jsonPath.Get(data)
	if !m.hasExp {
		return len(results) > 0
	}
	for _, got := range results {
		norm, err := normalizeJSON(got)
		if err != nil {
			continue
		}
		if reflect.DeepEqual(norm, m.expected) {
			return true
		}
	}
	return false
}

func matchForm(want map[string][]string, body []byte) bool {
	got, err := url.ParseQuery(string(body))
	if err != nil {
		return false
	}
	if len(got) != len(want) {
		return false
	}
	for name, values := range want {
		if !reflect.DeepEqual(got[name], values) {
			return false
		}
	}
	return true
}

func matchXML(want *etree.Element, body []byte) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return false
	}
	root := doc.Root()
	return root != nil && xmlElementsEqual(want, root)
}

// xmlElementsEqual compares tag, trimmed text, attributes (order
// insensitive) and child elements (order sensitive).
func xmlElementsEqual(a, b *etree.Element) bool {
	if a.Space != b.Space || a.Tag != b.Tag {
		return false
	}
	if strings.TrimSpace(a.Text()) != strings.TrimSpace(b.Text()) {
		return false
	}
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	attrs := make(map[string]string, len(a.Attr))
	for _, attr := range a.Attr {
		attrs[attr.Space+":"+attr.Key] = attr.Value
	}
	for _, attr := range b.Attr {
		if v, ok := attrs[attr.Space+":"+attr.Key]; !ok || v != attr.Value {
			return false
		}
	}
	ac, bc := a.ChildElements(), b.ChildElements()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !xmlElementsEqual(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// decodeJSONBody decodes the body for structural comparison. ok is false
// when the body is not valid JSON.
func decodeJSONBody(body []byte) (any, bool) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, false
	}
	return v, true
}

// normalizeJSON round-trips a value through JSON so that numbers, maps
// and slices compare structurally regardless of their Go source type.
func normalizeJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func truncate(s string) string {
	const max = 48
	if len(s) > max {
		return fmt.Sprintf("%q…", s[:max])
	}
	return fmt.Sprintf("%q", s)
}
