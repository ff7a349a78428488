package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Levenshtein("thor", "thor"))
}

func TestLevenshteinOneEdit(t *testing.T) {
	got := Levenshtein("thor", "thot")
	assert.InDelta(t, 0.75, got, 0.001)
}

func TestLevenshteinBothEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Levenshtein("", ""))
}

func TestJaccardIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard("thor", "thor"))
}

func TestJaccardDisjoint(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard("abc", "xyz"))
}

func TestJaccardPartialOverlap(t *testing.T) {
	got := Jaccard("thor", "thor2")
	assert.InDelta(t, 4.0/5.0, got, 0.001)
}

func TestByNameResolvesConfiguredFunctions(t *testing.T) {
	for _, name := range []string{"none", "levenshtein", "jaccard"} {
		fn, ok := ByName(name)
		assert.True(t, ok, name)
		assert.NotNil(t, fn)
	}
	_, ok := ByName("bogus")
	assert.False(t, ok)
}
