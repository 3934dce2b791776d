// Package history records every dispatched request for diagnostics.
//
// The dispatch loop is the only writer; entries are append-only
// snapshots and never mutated after the fact. Tests read the log to
// explain verification failures or to assert on traffic details the
// expectation API does not cover.
package history

import "time"

// MaxCapturedBody caps how much of a request or response body is stored
// per entry (10KB). Longer bodies are truncated; BodySize keeps the
// original length.
const MaxCapturedBody = 10 << 10

// Entry captures one dispatched request and its outcome.
type Entry struct {
	// ID is a unique identifier for the entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body, truncated at MaxCapturedBody.
	Body string `json:"body,omitempty"`

	// BodySize is the original request body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr,omitempty"`

	// MatchedID is the ID of the expectation that matched, empty when
	// the request was unmatched.
	MatchedID string `json:"matchedId,omitempty"`

	// Unmatched is true when no expectation matched the request.
	Unmatched bool `json:"unmatched,omitempty"`

	// ResponseStatus is the status code returned to the client.
	ResponseStatus int `json:"responseStatus"`

	// ResponseBody is the response body, truncated at MaxCapturedBody.
	ResponseBody string `json:"responseBody,omitempty"`

	// DurationMs is the dispatch time in milliseconds (matching plus
	// responder invocation, excluding configured delays).
	DurationMs int `json:"durationMs"`

	// Error holds a responder failure description, if any.
	Error string `json:"error,omitempty"`
}

// Filter selects history entries.
type Filter struct {
	// Method filters by HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// MatchedID filters by matched expectation ID.
	MatchedID string

	// StatusCode filters by response status.
	StatusCode int

	// Unmatched filters by match outcome when non-nil.
	Unmatched *bool

	// Limit caps the number of returned entries (0 = no cap).
	Limit int

	// Offset skips that many entries from the start.
	Offset int
}

func (f *Filter) accepts(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.Method != "" && f.Method != e.Method {
		return false
	}
	if f.Path != "" && !hasPrefix(e.Path, f.Path) {
		return false
	}
	if f.MatchedID != "" && f.MatchedID != e.MatchedID {
		return false
	}
	if f.StatusCode != 0 && f.StatusCode != e.ResponseStatus {
		return false
	}
	if f.Unmatched != nil && *f.Unmatched != e.Unmatched {
		return false
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Truncate clips a body for capture in an entry.
func Truncate(body []byte) string {
	if len(body) > MaxCapturedBody {
		return string(body[:MaxCapturedBody])
	}
	return string(body)
}
