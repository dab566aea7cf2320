package dashboard

import (
	"sort"
	"strings"
)

// WordWeight is one entry of a word cloud.
type WordWeight struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// stopwords that would otherwise dominate every cloud. Short tokens
// (< 3 runes) are dropped separately.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "was": true, "are": true, "but": true, "not": true,
	"you": true, "his": true, "her": true, "she": true, "has": true,
	"had": true, "have": true, "from": true, "they": true, "them": true,
	"were": true, "been": true, "would": true, "there": true, "their": true,
	"what": true, "when": true, "who": true, "will": true, "about": true,
	"all": true, "can": true, "just": true, "out": true, "very": true,
	"read": true, "reading": true, "more": true, "some": true, "its": true,
	"into": true, "than": true, "then": true, "also": true, "because": true,
	"really": true, "how": true, "your": true, "like": true,
}

// BannedWords builds the exclusion set for word clouds: every token of
// every author name, plus a couple of words the source data always
// contains.
func BannedWords(authorNames []string) map[string]bool {
	banned := map[string]bool{
		"book": true,
		"one":  true,
	}
	for _, name := range authorNames {
		for _, w := range strings.Fields(name) {
			banned[strings.ToLower(w)] = true
		}
	}
	return banned
}

// WordFrequencies counts words across already-cleaned texts and returns
// the top N by count, heaviest first.
func WordFrequencies(texts []string, banned map[string]bool, topN int) []WordWeight {
	counts := map[string]int{}
	for _, text := range texts {
		for _, w := range strings.Fields(text) {
			if len(w) < 3 || stopwords[w] || banned[w] {
				continue
			}
			counts[w]++
		}
	}

	out := make([]WordWeight, 0, len(counts))
	for w, n := range counts {
		out = append(out, WordWeight{Word: w, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
