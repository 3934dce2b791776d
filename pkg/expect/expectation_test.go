package expect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/expect/pkg/match"
	"github.com/getmockd/expect/pkg/record"
	"github.com/getmockd/expect/pkg/respond"
)

func TestTimes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		times      Times
		observed   int
		wantMet    bool
		wantCapped bool
	}{
		{"any with zero", Any(), 0, true, false},
		{"any with many", Any(), 100, true, false},
		{"at least unmet", AtLeast(2), 1, false, false},
		{"at least met", AtLeast(2), 2, true, false},
		{"at least never caps", AtLeast(2), 50, true, false},
		{"at most zero observed", AtMost(2), 0, true, false},
		{"at most at cap", AtMost(2), 2, true, true},
		{"exactly unmet", Exactly(1), 0, false, false},
		{"exactly met and capped", Exactly(1), 1, true, true},
		{"between below", Between(2, 4), 1, false, false},
		{"between inside", Between(2, 4), 3, true, false},
		{"between at cap", Between(2, 4), 4, true, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantMet, tt.times.met(tt.observed), "met")
			assert.Equal(t, tt.wantCapped, tt.times.capped(tt.observed), "capped")
		})
	}
}

func TestTimesString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "any number of calls", Any().String())
	assert.Equal(t, "at least 2 call(s)", AtLeast(2).String())
	assert.Equal(t, "at most 3 call(s)", AtMost(3).String())
	assert.Equal(t, "exactly 1 call(s)", Exactly(1).String())
	assert.Equal(t, "between 2 and 4 calls", Between(2, 4).String())
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("defaults to exactly one", func(t *testing.T) {
		t.Parallel()
		e := Request(match.Path("/x")).RespondWith(respond.Status(200))
		require.NotNil(t, e)
		assert.Equal(t, Exactly(1), e.times)
	})

	t.Run("times override", func(t *testing.T) {
		t.Parallel()
		e := Request(match.Path("/x")).Times(AtLeast(3)).RespondWith(respond.Status(200))
		assert.Equal(t, AtLeast(3), e.times)
	})

	t.Run("description names matcher and cardinality", func(t *testing.T) {
		t.Parallel()
		e := Request(match.Method("GET")).Times(Any()).RespondWith(respond.Status(200))
		assert.Equal(t, `method == "GET", any number of calls`, e.Description())
	})
}

func TestExpectationExhausted(t *testing.T) {
	t.Parallel()

	t.Run("capped cardinality exhausts", func(t *testing.T) {
		t.Parallel()
		e := Request(match.Path("/x")).Times(AtMost(1)).RespondWith(respond.Status(200))
		assert.False(t, e.exhausted())
		e.hits = 1
		assert.True(t, e.exhausted())
	})

	t.Run("consumed chain exhausts", func(t *testing.T) {
		t.Parallel()
		e := Request(match.Path("/x")).Times(Any()).RespondWith(respond.Chain(record.Text(200, "A")))
		assert.False(t, e.exhausted())
		e.responder.Respond(nil)
		assert.True(t, e.exhausted())
	})

	t.Run("unbounded fixed responder never exhausts", func(t *testing.T) {
		t.Parallel()
		e := Request(match.Path("/x")).Times(Any()).RespondWith(respond.Status(200))
		e.hits = 1000
		assert.False(t, e.exhausted())
	})
}
