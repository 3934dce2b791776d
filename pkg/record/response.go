package record

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the engine's view of an outbound HTTP response.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the response body.
	Body []byte
}

// NewResponse creates an empty response with the given status code.
func NewResponse(status int) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
	}
}

// Text creates a text/plain response.
func Text(status int, body string) *Response {
	r := NewResponse(status)
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	r.Body = []byte(body)
	return r
}

// JSON creates an application/json response by marshaling v.
// Panics if v cannot be marshaled; a response body that cannot be encoded
// is a defect in the test itself.
func JSON(status int, v any) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("record: marshal JSON response body: %v", err))
	}
	r := NewResponse(status)
	r.Header.Set("Content-Type", "application/json")
	r.Body = data
	return r
}

// Bytes creates a response with an explicit content type and raw body.
func Bytes(status int, contentType string, body []byte) *Response {
	r := NewResponse(status)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Body = body
	return r
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// Clone returns a deep copy. Responders hand out clones so that one
// canned response can serve many requests without aliasing.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header.Clone(),
	}
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Body != nil {
		c.Body = make([]byte, len(r.Body))
		copy(c.Body, r.Body)
	}
	return c
}

// Write serializes the response onto a standard library ResponseWriter.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
	}
	return nil
}
