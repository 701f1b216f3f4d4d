package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputDigest_Deterministic(t *testing.T) {
	a := InputDigest("k1", "hello")
	b := InputDigest("k1", "hello")
	assert.Equal(t, a, b)
}

func TestInputDigest_32HexChars(t *testing.T) {
	d := InputDigest("k1", "hello")
	assert.Len(t, d, 32)
	for _, c := range d {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestInputDigest_DiffersByCacheKey(t *testing.T) {
	a := InputDigest("k1", "hello")
	b := InputDigest("k2", "hello")
	assert.NotEqual(t, a, b)
}

func TestInputDigest_DiffersByInput(t *testing.T) {
	a := InputDigest("k1", "hello")
	b := InputDigest("k1", "world")
	assert.NotEqual(t, a, b)
}
