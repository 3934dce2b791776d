package match

import "fmt"

// ConstructionError reports an invalid matcher argument (bad regular
// expression, glob, JSON document, JSONPath, schema, XML or expression).
// It is returned synchronously by the constructor; a matcher is never
// built from invalid input.
type ConstructionError struct {
	// Matcher names the constructor, e.g. "PathPattern".
	Matcher string

	// Input is the offending argument.
	Input string

	// Err is the underlying parse or compile error.
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("match: invalid %s %q: %v", e.Matcher, e.Input, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func constructionErr(matcher, input string, err error) error {
	return &ConstructionError{Matcher: matcher, Input: input, Err: err}
}
