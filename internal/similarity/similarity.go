// Package similarity scores keyword-set overlap between verifications.
package similarity

import (
	"sort"

	"github.com/factchecker/claimradar/internal/models"
)

// DefaultThreshold is the minimum Jaccard score for a near-duplicate.
const DefaultThreshold = 0.7

// Match pairs a stored record with its similarity to the query keywords.
type Match struct {
	Record *models.VerificationRecord
	Score  float64
}

// Jaccard returns |a ∩ b| / |a ∪ b| over the distinct terms of a and b.
// It is 0 when either side is empty.
func Jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// FindSimilar scans the whole corpus and returns records scoring at least
// threshold, best first. Ties are ordered by text hash. Cost is linear in
// the corpus size; no index is assumed.
func FindSimilar(keywords []string, threshold float64, corpus []*models.VerificationRecord) []Match {
	if len(keywords) == 0 {
		return nil
	}
	var matches []Match
	for _, rec := range corpus {
		if rec == nil || len(rec.Keywords) == 0 {
			continue
		}
		score := Jaccard(keywords, rec.Keywords)
		if score > 0 && score >= threshold {
			matches = append(matches, Match{Record: rec, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Record.TextHash < matches[j].Record.TextHash
	})
	return matches
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
