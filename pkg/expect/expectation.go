package expect

import (
	"fmt"

	"github.com/getmockd/expect/pkg/match"
	"github.com/getmockd/expect/pkg/respond"
)

// Times constrains how many requests an expectation may receive: a
// required minimum checked by verification, and an optional maximum
// after which the expectation stops matching.
type Times struct {
	min     int
	max     int
	bounded bool
}

// Any allows any number of requests, including none.
func Any() Times {
	return Times{}
}

// AtLeast requires at least n requests.
func AtLeast(n int) Times {
	return Times{min: n}
}

// AtMost allows up to n requests; further ones fall through to other
// expectations.
func AtMost(n int) Times {
	return Times{max: n, bounded: true}
}

// Between requires between lo and hi requests, inclusive.
func Between(lo, hi int) Times {
	return Times{min: lo, max: hi, bounded: true}
}

// Exactly requires exactly n requests.
func Exactly(n int) Times {
	return Times{min: n, max: n, bounded: true}
}

// met reports whether observed satisfies the minimum. The maximum cannot
// be overshot: expectations at their maximum stop matching.
func (t Times) met(observed int) bool {
	return observed >= t.min
}

// capped reports whether observed has reached the maximum.
func (t Times) capped(observed int) bool {
	return t.bounded && observed >= t.max
}

func (t Times) String() string {
	switch {
	case !t.bounded && t.min == 0:
		return "any number of calls"
	case !t.bounded:
		return fmt.Sprintf("at least %d call(s)", t.min)
	case t.min == t.max:
		return fmt.Sprintf("exactly %d call(s)", t.min)
	case t.min == 0:
		return fmt.Sprintf("at most %d call(s)", t.max)
	default:
		return fmt.Sprintf("between %d and %d calls", t.min, t.max)
	}
}

// Expectation pairs a matcher with a responder and a cardinality. Build
// one with Request(...).Times(...).RespondWith(...) and register it with
// Server.Expect. A registered expectation is owned by the server's
// dispatch loop; do not register the same Expectation value twice.
type Expectation struct {
	id        string
	matcher   *match.Matcher
	responder *respond.Responder
	times     Times
	hits      int
}

// Description renders the expectation for diagnostics.
func (e *Expectation) Description() string {
	return fmt.Sprintf("%s, %s", e.matcher.String(), e.times.String())
}

// exhausted reports whether the expectation should be skipped during
// matching: its call maximum is reached or its responder (a Chain) has
// been consumed. Exhausted expectations stay registered so verification
// can still account for them.
func (e *Expectation) exhausted() bool {
	if e.times.capped(e.hits) {
		return true
	}
	return e.responder != nil && e.responder.Exhausted()
}

// Builder assembles an Expectation.
type Builder struct {
	matcher *match.Matcher
	times   Times
}

// Request starts building an expectation for requests the given matcher
// accepts. The default cardinality is Exactly(1).
func Request(m *match.Matcher) *Builder {
	return &Builder{matcher: m, times: Exactly(1)}
}

// Times sets how many requests the expectation must and may receive.
func (b *Builder) Times(t Times) *Builder {
	b.times = t
	return b
}

// RespondWith completes the expectation with a responder.
func (b *Builder) RespondWith(r *respond.Responder) *Expectation {
	return &Expectation{
		matcher:   b.matcher,
		responder: r,
		times:     b.times,
	}
}
