package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeBasicTrigrams(t *testing.T) {
	got := Tokenize("Thor", 3)
	want := []string{
		string([]rune{Sentinel, Sentinel, 't'}),
		string([]rune{Sentinel, 't', 'h'}),
		"tho",
		"hor",
		string([]rune{'o', 'r', Sentinel}),
		string([]rune{'r', Sentinel, Sentinel}),
	}
	assert.Equal(t, want, got)
}

func TestTokenizeSplitsOnNonAlphanumeric(t *testing.T) {
	got := Tokenize("Spider-Man 2", 3)
	assert.Contains(t, got, "spi")
	assert.Contains(t, got, "man")
	assert.NotContains(t, got, "r-m")
}

func TestTokenizeLowercasesAndNormalizes(t *testing.T) {
	a := Tokenize("SHOGUN", 3)
	b := Tokenize("shogun", 3)
	assert.Equal(t, a, b)
}

func TestTokenizeIdempotentUnderNormalize(t *testing.T) {
	s := "Amélie"
	assert.Equal(t, Tokenize(s, 3), Tokenize(Normalize(s), 3))
}

func TestFrequenciesCountsRepeats(t *testing.T) {
	freq := Frequencies([]string{"aaa", "aaa", "bbb"})
	assert.Equal(t, uint32(2), freq["aaa"])
	assert.Equal(t, uint32(1), freq["bbb"])
}

func TestTokenizeEmptyInputYieldsNoTokens(t *testing.T) {
	assert.Empty(t, Tokenize("   ", 3))
	assert.Empty(t, Tokenize("", 3))
}
