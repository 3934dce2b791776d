// Package expect runs programmable HTTP mock servers for client tests.
//
// A test starts a server, registers expectations (matcher + responder +
// cardinality), points the client under test at the server's URL, and
// finally verifies that exactly the expected traffic arrived:
//
//	srv, err := expect.Start()
//	// handle err
//	defer srv.Close()
//
//	srv.Expect(expect.Request(
//		match.All(match.Method("GET"), match.Path("/widgets")),
//	).RespondWith(respond.JSON(200, map[string]bool{"ok": true})))
//
//	// exercise the client against srv.URL("/widgets") ...
//
//	if err := srv.VerifyAndClear(); err != nil {
//		t.Fatal(err)
//	}
//
// Each Server is fully independent; any number can run concurrently in
// one process.
package expect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/expect/pkg/history"
	"github.com/getmockd/expect/pkg/logging"
	"github.com/getmockd/expect/pkg/record"
)

const (
	defaultStartupTimeout  = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultHistoryLimit    = 1000
)

// Server is a running mock HTTP server bound to a local port. All
// methods are safe for concurrent use. Control methods (Expect,
// ClearExpectations, VerifyAndClear) panic when called after shutdown:
// driving a stopped server is a bug in the test, not a runtime
// condition.
type Server struct {
	log             *slog.Logger
	port            int
	strict          bool
	startupTimeout  time.Duration
	shutdownTimeout time.Duration
	historyLimit    int

	addr       string
	httpServer *http.Server
	commands   chan command
	loopDone   chan struct{}
	history    *history.MemoryStore

	shutdownOnce sync.Once
}

// Option configures a Server before startup.
type Option func(*Server)

// WithPort binds a fixed port instead of an ephemeral one.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithLogger sets the operational logger. The default discards
// everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStartupTimeout bounds how long Start waits for the server to
// become ready.
func WithStartupTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.startupTimeout = d
		}
	}
}

// WithShutdownTimeout bounds how long Close waits for in-flight
// requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithStrict makes Close fail when expectations are unmet, so a test
// that forgets VerifyAndClear still surfaces missing traffic. The
// default is lenient: disposal without verification ignores unmet
// expectations.
func WithStrict() Option {
	return func(s *Server) { s.strict = true }
}

// WithHistoryLimit caps the request history (default 1000 entries).
func WithHistoryLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// Start binds a listener on 127.0.0.1, spawns the dispatch loop and the
// HTTP serving goroutine, and waits (bounded by the startup timeout) for
// the loop to acknowledge readiness. The returned Server is ready to
// accept expectations and traffic.
func Start(opts ...Option) (*Server, error) {
	s := &Server{
		log:             logging.Nop(),
		startupTimeout:  defaultStartupTimeout,
		shutdownTimeout: defaultShutdownTimeout,
		historyLimit:    defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return nil, &StartupError{Err: fmt.Errorf("bind: %w", err)}
	}
	s.addr = ln.Addr().String()
	s.commands = make(chan command)
	s.loopDone = make(chan struct{})
	s.history = history.NewMemoryStore(s.historyLimit)
	s.httpServer = &http.Server{Handler: http.HandlerFunc(s.serveHTTP)}

	go s.loop()
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", "addr", s.addr, "error", err)
		}
	}()

	// Round-trip a ping so a caller never sees a server whose loop is
	// not consuming commands yet.
	ready := make(chan struct{})
	deadline := time.NewTimer(s.startupTimeout)
	defer deadline.Stop()
	select {
	case s.commands <- pingCmd{reply: ready}:
		select {
		case <-ready:
		case <-deadline.C:
			_ = s.httpServer.Close()
			return nil, &StartupError{Err: errors.New("dispatch loop not ready within startup timeout")}
		}
	case <-deadline.C:
		_ = s.httpServer.Close()
		return nil, &StartupError{Err: errors.New("dispatch loop not ready within startup timeout")}
	}

	s.log.Info("mock server started", "addr", s.addr)
	return s, nil
}

// Addr returns the bound address, e.g. "127.0.0.1:49152".
func (s *Server) Addr() string {
	return s.addr
}

// URL returns an absolute URL for path on this server:
// URL("/widgets?q=1") == "http://127.0.0.1:<port>/widgets?q=1".
func (s *Server) URL(path string) string {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return "http://" + s.addr + path
}

// Expect registers an expectation and returns its ID. The expectation is
// visible to every request accepted after Expect returns.
func (s *Server) Expect(e *Expectation) string {
	reply := make(chan string, 1)
	s.send(addCmd{exp: e, reply: reply})
	return <-reply
}

// ClearExpectations removes all registered expectations and resets the
// unmatched-request counter, leaving the server running in a clean
// state.
func (s *Server) ClearExpectations() {
	reply := make(chan struct{})
	s.send(clearCmd{reply: reply})
	<-reply
}

// VerifyAndClear checks that every registered expectation has met its
// minimum call count, then clears all expectations. It fails with a
// *VerificationError if and only if at least one expectation received
// fewer requests than required.
func (s *Server) VerifyAndClear() error {
	return s.verify(true)
}

// Verify is VerifyAndClear without the clearing: expectations stay
// registered and keep their counts.
func (s *Server) Verify() error {
	return s.verify(false)
}

func (s *Server) verify(clear bool) error {
	reply := make(chan error, 1)
	s.send(verifyCmd{clear: clear, reply: reply})
	return <-reply
}

// History returns all recorded dispatches in order.
func (s *Server) History() []*history.Entry {
	return s.history.List(nil)
}

// FilterHistory returns recorded dispatches selected by filter.
func (s *Server) FilterHistory(f *history.Filter) []*history.Entry {
	return s.history.List(f)
}

// HistoryCount returns the number of recorded dispatches.
func (s *Server) HistoryCount() int {
	return s.history.Count()
}

// ClearHistory drops all recorded dispatches.
func (s *Server) ClearHistory() {
	s.history.Clear()
}

// Shutdown stops the server: accepts stop, in-flight requests are
// allowed to finish (bounded by ctx), then the dispatch loop exits.
// Shutdown is idempotent; calls after the first return nil immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.httpServer.Shutdown(ctx)

		reply := make(chan struct{})
		select {
		case s.commands <- stopCmd{reply: reply}:
			<-reply
		case <-s.loopDone:
		}
		s.log.Info("mock server stopped", "addr", s.addr)
	})
	return err
}

// Close shuts the server down with the configured shutdown timeout. In
// strict mode it first verifies all expectations and returns the
// verification error, if any, in preference to a shutdown error.
func (s *Server) Close() error {
	var verifyErr error
	if s.strict && !s.stopped() {
		verifyErr = s.VerifyAndClear()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	shutdownErr := s.Shutdown(ctx)

	if verifyErr != nil {
		return verifyErr
	}
	return shutdownErr
}

func (s *Server) stopped() bool {
	select {
	case <-s.loopDone:
		return true
	default:
		return false
	}
}

// send delivers a control command to the dispatch loop. A send on a
// stopped server is a programming error.
func (s *Server) send(cmd command) {
	select {
	case s.commands <- cmd:
	case <-s.loopDone:
		panic("expect: control command on a stopped server")
	}
}

// serveHTTP bridges the transport to the dispatch loop: snapshot the
// request, dispatch it, apply any configured delay outside the loop,
// and serialize the response.
func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := record.FromHTTP(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("expect: reject request: %v", err), http.StatusBadRequest)
		return
	}

	reply := make(chan dispatchResult, 1)
	select {
	case s.commands <- dispatchCmd{req: req, reply: reply}:
	case <-s.loopDone:
		// Shutdown raced an in-flight connection.
		http.Error(w, "expect: mock server stopped", http.StatusServiceUnavailable)
		return
	}
	res := <-reply

	if res.delay > 0 {
		timer := time.NewTimer(res.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	if err := res.resp.Write(w); err != nil {
		s.log.Warn("write response", "error", err)
	}
}
