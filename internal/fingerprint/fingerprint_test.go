package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf_Deterministic(t *testing.T) {
	text := "Vaccines cause autism"
	assert.Equal(t, Of(text), Of(text))
	assert.Len(t, Of(text).String(), 32)
}

func TestOf_KnownDigests(t *testing.T) {
	// Stable across processes and platforms.
	assert.Equal(t, Hash("d41d8cd98f00b204e9800998ecf8427e"), Of(""))
	assert.Equal(t, Hash("9e107d9d372bb6826bd81d3542a419d6"), Of("The quick brown fox jumps over the lazy dog"))
}

func TestOf_NoNormalization(t *testing.T) {
	assert.NotEqual(t, Of("climate change"), Of("climate  change"))
	assert.NotEqual(t, Of("climate change"), Of("Climate change"))
}
