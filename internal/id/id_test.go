package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	t.Parallel()

	a := Short()
	b := Short()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestNew(t *testing.T) {
	t.Parallel()

	got := New("exp")
	assert.True(t, strings.HasPrefix(got, "exp-"))
	assert.Len(t, got, len("exp-")+16)

	assert.Len(t, New(""), 16)
}
