package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBannedWords(t *testing.T) {
	banned := BannedWords([]string{"Stephen King", "J.K. Rowling"})

	assert.True(t, banned["stephen"])
	assert.True(t, banned["king"])
	assert.True(t, banned["j.k."])
	assert.True(t, banned["rowling"])
	assert.True(t, banned["book"])
	assert.True(t, banned["one"])
	assert.False(t, banned["story"])
}

func TestWordFrequencies(t *testing.T) {
	texts := []string{
		"the plot twists kept me hooked",
		"plot was slow but twists saved it",
		"ok",
	}

	words := WordFrequencies(texts, map[string]bool{"hooked": true}, 3)

	assert.Equal(t, []WordWeight{
		{Word: "plot", Count: 2},
		{Word: "twists", Count: 2},
		{Word: "kept", Count: 1},
	}, words)
}

func TestWordFrequenciesTruncatesToTopN(t *testing.T) {
	texts := []string{"alpha beta gamma delta epsilon"}

	words := WordFrequencies(texts, nil, 2)

	assert.Len(t, words, 2)
	assert.Equal(t, "alpha", words[0].Word)
	assert.Equal(t, "beta", words[1].Word)
}
