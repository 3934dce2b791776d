package record

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTTP(t *testing.T) {
	t.Parallel()

	t.Run("captures method path query and body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/api/users?page=2&page=3&sort=name", strings.NewReader(`{"name":"ada"}`))
		r.Header.Set("X-Trace", "abc")

		rec, err := FromHTTP(r)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, rec.Method)
		assert.Equal(t, "/api/users", rec.Path)
		assert.Equal(t, "page=2&page=3&sort=name", rec.RawQuery)
		assert.Equal(t, []string{"2", "3"}, rec.Query["page"])
		assert.Equal(t, "name", rec.Query.Get("sort"))
		assert.Equal(t, "abc", rec.Header.Get("X-Trace"))
		assert.Equal(t, `{"name":"ada"}`, string(rec.Body))
		assert.False(t, rec.Received.IsZero())
	})

	t.Run("headers are case-insensitive", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("x-api-key", "secret")

		rec, err := FromHTTP(r)
		require.NoError(t, err)
		assert.Equal(t, "secret", rec.Header.Get("X-Api-Key"))
	})

	t.Run("header snapshot is independent of the source request", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Mutable", "before")

		rec, err := FromHTTP(r)
		require.NoError(t, err)
		r.Header.Set("X-Mutable", "after")
		assert.Equal(t, "before", rec.Header.Get("X-Mutable"))
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", MaxBodySize+1)))
		_, err := FromHTTP(r)
		require.Error(t, err)
	})

	t.Run("malformed query keeps raw string", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/p?bad=%zz", nil)
		rec, err := FromHTTP(r)
		require.NoError(t, err)
		assert.Equal(t, "bad=%zz", rec.RawQuery)
	})
}

func TestResponseBuilders(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		r := Text(404, "not here")
		assert.Equal(t, 404, r.StatusCode)
		assert.Equal(t, "text/plain; charset=utf-8", r.Header.Get("Content-Type"))
		assert.Equal(t, "not here", string(r.Body))
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		r := JSON(200, map[string]bool{"ok": true})
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"ok":true}`, string(r.Body))
	})

	t.Run("json panics on unmarshalable value", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { JSON(200, make(chan int)) })
	})

	t.Run("bytes with header chaining", func(t *testing.T) {
		t.Parallel()
		r := Bytes(201, "application/octet-stream", []byte{1, 2}).WithHeader("X-Custom", "v")
		assert.Equal(t, 201, r.StatusCode)
		assert.Equal(t, "v", r.Header.Get("X-Custom"))
		assert.Equal(t, []byte{1, 2}, r.Body)
	})
}

func TestResponseClone(t *testing.T) {
	t.Parallel()

	orig := JSON(200, map[string]int{"n": 1}).WithHeader("X-A", "1")
	c := orig.Clone()
	require.NotNil(t, c)

	c.Body[0] = '!'
	c.Header.Set("X-A", "2")
	c.StatusCode = 500

	assert.Equal(t, 200, orig.StatusCode)
	assert.Equal(t, "1", orig.Header.Get("X-A"))
	assert.Equal(t, byte('{'), orig.Body[0])
}

func TestResponseWrite(t *testing.T) {
	t.Parallel()

	t.Run("writes status headers and body", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := Text(418, "teapot").WithHeader("X-A", "1")
		require.NoError(t, r.Write(w))

		assert.Equal(t, 418, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-A"))
		assert.Equal(t, "teapot", w.Body.String())
	})

	t.Run("zero status defaults to 200", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, (&Response{}).Write(w))
		assert.Equal(t, 200, w.Code)
	})
}
