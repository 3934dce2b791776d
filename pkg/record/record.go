// Package record holds wire-independent request and response records.
//
// A Request is the engine's view of one inbound HTTP exchange: the
// transport reads the full body into memory and hands the engine an
// immutable snapshot, so matchers never touch the network. A Response is
// produced fresh per matched request and handed back to the transport
// for serialization.
package record

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MaxBodySize is the maximum request body size accepted for matching (10MB).
// Larger bodies are rejected before they reach the dispatch loop.
const MaxBodySize = 10 << 20

// Request is an immutable snapshot of an inbound HTTP request.
type Request struct {
	// Method is the HTTP method, e.g. "GET".
	Method string

	// Path is the URL path component, e.g. "/widgets".
	Path string

	// RawQuery is the query string exactly as received, preserving
	// parameter order.
	RawQuery string

	// Query is the decoded query string. Value order within a key is
	// preserved; cross-key order is available from RawQuery.
	Query url.Values

	// Header holds the request headers under canonical (case-insensitive)
	// keys.
	Header http.Header

	// Body is the complete request body.
	Body []byte

	// RemoteAddr is the client address as reported by the transport.
	RemoteAddr string

	// Received is when the transport handed the request to the engine.
	Received time.Time
}

// FromHTTP builds a Request snapshot from an *http.Request, reading the
// full body into memory. Bodies larger than MaxBodySize are rejected.
func FromHTTP(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if len(body) > MaxBodySize {
			return nil, fmt.Errorf("request body exceeds %d bytes", MaxBodySize)
		}
	}

	// A malformed query string yields whatever ParseQuery decoded before
	// the error; the raw string stays available on the record.
	query, _ := url.ParseQuery(r.URL.RawQuery)

	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		RawQuery:   r.URL.RawQuery,
		Query:      query,
		Header:     r.Header.Clone(),
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		Received:   time.Now(),
	}, nil
}
