// Package keywords derives a bounded set of salient terms from a document.
package keywords

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxKeywords caps the number of terms returned per document.
	DefaultMaxKeywords = 20
	// DefaultMaxFeatures bounds the vocabulary considered before ranking.
	DefaultMaxFeatures = 1000
)

// Extractor ranks unigrams and bigrams of a single document by normalized
// term frequency. IDF is constant for a one-document corpus, so salience
// comes from frequency with stopwords removed.
type Extractor struct {
	MaxKeywords int
	MaxFeatures int
}

// NewExtractor creates an extractor returning at most maxKeywords terms.
func NewExtractor(maxKeywords int) *Extractor {
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	return &Extractor{MaxKeywords: maxKeywords, MaxFeatures: DefaultMaxFeatures}
}

// Extract uses a default extractor.
func Extract(text string) []string {
	return NewExtractor(DefaultMaxKeywords).Extract(text)
}

type scored struct {
	term  string
	count int
	score float64
}

// Extract returns the top terms of text. Ties are broken lexicographically so
// the result is fully deterministic. Empty input yields an empty slice.
func (e *Extractor) Extract(text string) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return []string{}
	}

	counts := make(map[string]int)
	for i, tok := range tokens {
		counts[tok]++
		if i+1 < len(tokens) {
			counts[tok+" "+tokens[i+1]]++
		}
	}

	terms := make([]scored, 0, len(counts))
	for term, n := range counts {
		terms = append(terms, scored{term: term, count: n})
	}
	sortScored(terms, func(a, b scored) bool { return a.count > b.count })

	maxFeatures := e.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	var norm float64
	for _, t := range terms {
		norm += float64(t.count * t.count)
	}
	norm = math.Sqrt(norm)
	for i := range terms {
		terms[i].score = float64(terms[i].count) / norm
	}
	sortScored(terms, func(a, b scored) bool { return a.score > b.score })

	limit := e.MaxKeywords
	if limit <= 0 {
		limit = DefaultMaxKeywords
	}
	out := make([]string, 0, limit)
	for _, t := range terms {
		if len(out) == limit {
			break
		}
		if t.score <= 0 {
			continue
		}
		out = append(out, t.term)
	}
	return out
}

// sortScored orders by the primary key, then term ascending.
func sortScored(terms []scored, before func(a, b scored) bool) {
	sort.Slice(terms, func(i, j int) bool {
		if before(terms[i], terms[j]) {
			return true
		}
		if before(terms[j], terms[i]) {
			return false
		}
		return terms[i].term < terms[j].term
	})
}

// tokenize lowercases text and returns word tokens of two or more runes,
// stopwords removed.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
