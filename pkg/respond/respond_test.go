package respond

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/expect/pkg/record"
)

func TestFixed(t *testing.T) {
	t.Parallel()

	r := Fixed(record.Text(200, "hello"))

	first, delay := r.Respond(nil)
	require.NotNil(t, first)
	assert.Zero(t, delay)
	assert.Equal(t, "hello", string(first.Body))

	// Mutating a delivered response must not leak into later ones.
	first.Body[0] = '!'
	second, _ := r.Respond(nil)
	assert.Equal(t, "hello", string(second.Body))

	assert.False(t, r.Exhausted())
}

func TestConveniences(t *testing.T) {
	t.Parallel()

	resp, _ := Status(http.StatusNoContent).Respond(nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)

	resp, _ = Text(404, "nope").Respond(nil)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "nope", string(resp.Body))

	resp, _ = JSON(200, map[string]bool{"ok": true}).Respond(nil)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestCycle(t *testing.T) {
	t.Parallel()

	t.Run("rotates through the sequence forever", func(t *testing.T) {
		t.Parallel()
		r, err := Cycle(
			record.Text(200, "A"),
			record.Text(200, "B"),
			record.Text(200, "C"),
		)
		require.NoError(t, err)

		var got []string
		for i := 0; i < 6; i++ {
			resp, _ := r.Respond(nil)
			got = append(got, string(resp.Body))
		}
		assert.Equal(t, []string{"A", "B", "C", "A", "B", "C"}, got)
		assert.False(t, r.Exhausted())
	})

	t.Run("empty sequence is a construction error", func(t *testing.T) {
		t.Parallel()
		r, err := Cycle()
		assert.Nil(t, r)
		require.Error(t, err)
	})
}

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("consumes the sequence then exhausts", func(t *testing.T) {
		t.Parallel()
		r := Chain(record.Text(200, "A"), record.Text(200, "B"))

		assert.False(t, r.Exhausted())
		resp, _ := r.Respond(nil)
		assert.Equal(t, "A", string(resp.Body))
		resp, _ = r.Respond(nil)
		assert.Equal(t, "B", string(resp.Body))
		assert.True(t, r.Exhausted())
	})

	t.Run("empty chain is born exhausted", func(t *testing.T) {
		t.Parallel()
		assert.True(t, Chain().Exhausted())
	})
}

func TestDelay(t *testing.T) {
	t.Parallel()

	t.Run("reports delay without sleeping", func(t *testing.T) {
		t.Parallel()
		r := Delay(250*time.Millisecond, Text(200, "slow"))

		start := time.Now()
		resp, delay := r.Respond(nil)
		assert.Less(t, time.Since(start), 50*time.Millisecond, "Respond must not sleep")
		assert.Equal(t, 250*time.Millisecond, delay)
		assert.Equal(t, "slow", string(resp.Body))
	})

	t.Run("delays nest additively", func(t *testing.T) {
		t.Parallel()
		r := Delay(100*time.Millisecond, Delay(50*time.Millisecond, Status(200)))
		_, delay := r.Respond(nil)
		assert.Equal(t, 150*time.Millisecond, delay)
	})

	t.Run("propagates inner exhaustion", func(t *testing.T) {
		t.Parallel()
		r := Delay(time.Millisecond, Chain(record.Text(200, "only")))
		assert.False(t, r.Exhausted())
		r.Respond(nil)
		assert.True(t, r.Exhausted())
	})
}

func TestFunc(t *testing.T) {
	t.Parallel()

	r := Func(func(req *record.Request) *record.Response {
		return record.Text(200, "echo: "+string(req.Body))
	})

	resp, _ := r.Respond(&record.Request{Body: []byte("ping")})
	assert.Equal(t, "echo: ping", string(resp.Body))
	assert.False(t, r.Exhausted())
}
