package legalnlp

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

const (
	keywordLimit     = 10
	minKeywordLength = 4
	minKeywordCount  = 2
)

var wordPattern = regexp.MustCompile(`[a-z]+`)

var stopwords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "were": {},
	"been": {}, "their": {}, "would": {}, "which": {}, "there": {}, "shall": {},
	"does": {}, "such": {}, "upon": {}, "under": {}, "other": {}, "these": {},
	"must": {}, "also": {}, "more": {}, "when": {}, "where": {}, "whether": {},
	"court": {}, "case": {}, "states": {}, "united": {}, "plaintiff": {},
	"defendant": {}, "judge": {}, "order": {}, "motion": {}, "filed": {},
}

// KeywordExtractor pulls the most frequent content words, skipping procedural
// boilerplate terms that carry no signal in a legal corpus.
type KeywordExtractor struct{}

func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

func (e *KeywordExtractor) ExtractKeywords(_ context.Context, text string) ([]string, error) {
	counts := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) < minKeywordLength {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		counts[word]++
	}

	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for word, count := range counts {
		if count >= minKeywordCount {
			entries = append(entries, entry{word, count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})

	limit := keywordLimit
	if len(entries) < limit {
		limit = len(entries)
	}
	out := make([]string, 0, limit)
	for _, e := range entries[:limit] {
		out = append(out, e.word)
	}
	return out, nil
}
