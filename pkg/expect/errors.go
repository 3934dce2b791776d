package expect

import (
	"fmt"
	"strings"
)

// StartupError reports that the mock server could not be started: the
// listener failed to bind or the dispatch loop did not become ready
// within the startup timeout.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("expect: startup failed: %v", e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// UnmetExpectation describes one expectation that received fewer calls
// than its cardinality requires.
type UnmetExpectation struct {
	// ID is the expectation's registration ID.
	ID string

	// Description is the matcher and cardinality in human-readable form.
	Description string

	// Observed is how many requests matched.
	Observed int

	// Min is the required minimum.
	Min int
}

// VerificationError aggregates every unmet expectation found by
// VerifyAndClear. Unmatched carries the number of requests that matched
// no expectation; it is diagnostic context and on its own never causes a
// verification failure.
type VerificationError struct {
	Unmet     []UnmetExpectation
	Unmatched int
}

func (e *VerificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "expect: %d unmet expectation(s):", len(e.Unmet))
	for _, u := range e.Unmet {
		fmt.Fprintf(&b, "\n  %s [%s]: received %d request(s), want at least %d", u.ID, u.Description, u.Observed, u.Min)
	}
	if e.Unmatched > 0 {
		fmt.Fprintf(&b, "\n  (%d request(s) matched no expectation; see history)", e.Unmatched)
	}
	return b.String()
}
