// Package respond provides composable responders for the mock server.
//
// A Responder turns a matched request into a response record. Responders
// may carry private state (a cursor over a sequence of canned responses);
// that state is owned by the expectation holding the responder and is
// only ever advanced by the server's dispatch loop, which serializes
// responder invocations. Delays declared with Delay are not slept inside
// the dispatch loop: the loop returns the delay budget alongside the
// response and the connection that received the request waits it out, so
// a slow responder never blocks other connections or registry updates.
package respond

import (
	"fmt"
	"time"

	"github.com/getmockd/expect/pkg/record"
)

type kind int

const (
	kindFixed kind = iota
	kindCycle
	kindChain
	kindDelay
	kindFunc
)

// Responder produces a response for each matched request.
type Responder struct {
	kind   kind
	fixed  *record.Response
	seq    []*record.Response
	cursor int
	delay  time.Duration
	inner  *Responder
	fn     func(*record.Request) *record.Response
}

// Fixed responds with a clone of resp on every invocation.
func Fixed(resp *record.Response) *Responder {
	return &Responder{kind: kindFixed, fixed: resp}
}

// Status responds with an empty response carrying the given status code.
func Status(code int) *Responder {
	return Fixed(record.NewResponse(code))
}

// Text responds with a text/plain body.
func Text(status int, body string) *Responder {
	return Fixed(record.Text(status, body))
}

// JSON responds with an application/json body marshaled from v.
func JSON(status int, v any) *Responder {
	return Fixed(record.JSON(status, v))
}

// Cycle responds with each response in turn, wrapping around forever:
// Cycle(a, b, c) yields a, b, c, a, b, c, ... The sequence must be
// non-empty.
func Cycle(resps ...*record.Response) (*Responder, error) {
	if len(resps) == 0 {
		return nil, fmt.Errorf("respond: Cycle requires at least one response")
	}
	return &Responder{kind: kindCycle, seq: resps}, nil
}

// Chain responds with each response exactly once, in order. Once the
// sequence is consumed the responder is exhausted and the owning
// expectation stops matching, letting requests fall through to
// lower-priority expectations. Chain() with no responses is exhausted
// from the start.
func Chain(resps ...*record.Response) *Responder {
	return &Responder{kind: kindChain, seq: resps}
}

// Delay wraps a responder so that its response is delivered after d has
// elapsed. The wait happens on the connection serving the request, never
// inside the dispatch loop. Delays nest additively.
func Delay(d time.Duration, inner *Responder) *Responder {
	return &Responder{kind: kindDelay, delay: d, inner: inner}
}

// Func builds each response with an arbitrary function, the escape hatch
// for response logic the combinators cannot express. The function is
// invoked once per matched request, serialized by the dispatch loop.
func Func(fn func(*record.Request) *record.Response) *Responder {
	return &Responder{kind: kindFunc, fn: fn}
}

// Respond produces the response for one matched request together with
// the delay the transport should apply before delivering it. Must not be
// called on an exhausted responder.
func (r *Responder) Respond(req *record.Request) (*record.Response, time.Duration) {
	switch r.kind {
	case kindFixed:
		return r.fixed.Clone(), 0
	case kindCycle:
		resp := r.seq[r.cursor].Clone()
		r.cursor = (r.cursor + 1) % len(r.seq)
		return resp, 0
	case kindChain:
		if r.cursor >= len(r.seq) {
			return nil, 0
		}
		resp := r.seq[r.cursor].Clone()
		r.cursor++
		return resp, 0
	case kindDelay:
		resp, d := r.inner.Respond(req)
		return resp, d + r.delay
	case kindFunc:
		return r.fn(req), 0
	}
	return nil, 0
}

// Exhausted reports whether the responder has no responses left. Only
// Chain responders (possibly wrapped in Delay) ever exhaust.
func (r *Responder) Exhausted() bool {
	switch r.kind {
	case kindChain:
		return r.cursor >= len(r.seq)
	case kindDelay:
		return r.inner.Exhausted()
	}
	return false
}
