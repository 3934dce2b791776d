package expect

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getmockd/expect/internal/id"
	"github.com/getmockd/expect/pkg/history"
	"github.com/getmockd/expect/pkg/record"
)

// The dispatch loop is the sole owner of the expectation registry and
// the unmatched-request counter. Everything else — test thread and
// connection goroutines alike — talks to it through typed commands on a
// single channel, so registry reads and writes never race and commands
// apply in send order.

type command interface {
	isCommand()
}

// pingCmd confirms the loop is running; used by startup.
type pingCmd struct {
	reply chan struct{}
}

// addCmd appends an expectation to the registry.
type addCmd struct {
	exp   *Expectation
	reply chan string
}

// clearCmd truncates the registry and resets the unmatched counter.
type clearCmd struct {
	reply chan struct{}
}

// verifyCmd checks every expectation's minimum, optionally clearing.
type verifyCmd struct {
	clear bool
	reply chan error
}

// dispatchCmd matches one request and produces its response.
type dispatchCmd struct {
	req   *record.Request
	reply chan dispatchResult
}

// stopCmd ends the loop.
type stopCmd struct {
	reply chan struct{}
}

func (pingCmd) isCommand()     {}
func (addCmd) isCommand()      {}
func (clearCmd) isCommand()    {}
func (verifyCmd) isCommand()   {}
func (dispatchCmd) isCommand() {}
func (stopCmd) isCommand()     {}

// dispatchResult is handed back to the connection goroutine, which
// applies the delay (if any) and serializes the response.
type dispatchResult struct {
	resp  *record.Response
	delay time.Duration
}

func (s *Server) loop() {
	defer close(s.loopDone)

	var registry []*Expectation
	unmatched := 0

	for cmd := range s.commands {
		switch c := cmd.(type) {
		case pingCmd:
			close(c.reply)

		case addCmd:
			c.exp.id = id.New("exp")
			registry = append(registry, c.exp)
			s.log.Debug("expectation added", "id", c.exp.id, "matcher", c.exp.matcher.String(), "times", c.exp.times.String())
			c.reply <- c.exp.id

		case clearCmd:
			s.log.Debug("expectations cleared", "count", len(registry))
			registry = nil
			unmatched = 0
			close(c.reply)

		case verifyCmd:
			err := verifyRegistry(registry, unmatched)
			if c.clear {
				registry = nil
				unmatched = 0
			}
			c.reply <- err

		case dispatchCmd:
			res, wasMatched := s.dispatchOne(registry, c.req)
			if !wasMatched {
				unmatched++
			}
			c.reply <- res

		case stopCmd:
			close(c.reply)
			return
		}
	}
}

// dispatchOne matches a request against the registry in priority
// (insertion) order and invokes the winning responder. Matching and
// responder invocation are atomic with respect to the registry: both
// happen inside the loop, and only the delay is carried out elsewhere.
func (s *Server) dispatchOne(registry []*Expectation, req *record.Request) (res dispatchResult, wasMatched bool) {
	start := time.Now()
	entry := &history.Entry{
		Timestamp:   req.Received,
		Method:      req.Method,
		Path:        req.Path,
		QueryString: req.RawQuery,
		Headers:     req.Header,
		Body:        history.Truncate(req.Body),
		BodySize:    len(req.Body),
		RemoteAddr:  req.RemoteAddr,
	}

	var matched *Expectation
	for _, e := range registry {
		if e.exhausted() {
			continue
		}
		if safeMatches(e.matcher, req) {
			matched = e
			break
		}
	}

	if matched == nil {
		s.log.Debug("no expectation matched", "method", req.Method, "path", req.Path)
		resp := record.Text(http.StatusInternalServerError,
			fmt.Sprintf("expect: no expectation matched %s %s", req.Method, req.Path))
		entry.Unmatched = true
		entry.ResponseStatus = resp.StatusCode
		entry.ResponseBody = history.Truncate(resp.Body)
		entry.DurationMs = int(time.Since(start).Milliseconds())
		s.history.Append(entry)
		return dispatchResult{resp: resp}, false
	}

	matched.hits++
	resp, delay, respondErr := safeRespond(matched, req)
	if resp == nil {
		if respondErr == nil {
			respondErr = fmt.Errorf("responder produced no response")
		}
		resp = record.Text(http.StatusInternalServerError,
			fmt.Sprintf("expect: responder failed for %s: %v", matched.id, respondErr))
	}
	if respondErr != nil {
		s.log.Warn("responder failed", "id", matched.id, "error", respondErr)
		entry.Error = respondErr.Error()
	} else {
		s.log.Debug("request matched", "id", matched.id, "method", req.Method, "path", req.Path, "hits", matched.hits)
	}

	entry.MatchedID = matched.id
	entry.ResponseStatus = resp.StatusCode
	entry.ResponseBody = history.Truncate(resp.Body)
	entry.DurationMs = int(time.Since(start).Milliseconds())
	s.history.Append(entry)
	return dispatchResult{resp: resp, delay: delay}, true
}

// safeMatches evaluates a matcher, converting a panicking custom
// predicate into "no match" so one bad matcher cannot kill the loop.
func safeMatches(m interface{ Matches(*record.Request) bool }, req *record.Request) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return m.Matches(req)
}

// safeRespond invokes the responder, converting a panic into an error so
// the loop survives and the client gets a deterministic failure.
func safeRespond(e *Expectation, req *record.Request) (resp *record.Response, delay time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, delay = nil, 0
			err = fmt.Errorf("responder panicked: %v", r)
		}
	}()
	resp, delay = e.responder.Respond(req)
	return resp, delay, nil
}

func verifyRegistry(registry []*Expectation, unmatched int) error {
	var unmet []UnmetExpectation
	for _, e := range registry {
		if !e.times.met(e.hits) {
			unmet = append(unmet, UnmetExpectation{
				ID:          e.id,
				Description: e.Description(),
				Observed:    e.hits,
				Min:         e.times.min,
			})
		}
	}
	if len(unmet) == 0 {
		return nil
	}
	return &VerificationError{Unmet: unmet, Unmatched: unmatched}
}
