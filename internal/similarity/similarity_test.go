package similarity

import (
	"testing"

	"github.com/factchecker/claimradar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJaccard_Bounds(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(nil, []string{"a"}))
	assert.Equal(t, 0.0, Jaccard([]string{"a"}, nil))
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 1.0, Jaccard([]string{"a", "b"}, []string{"b", "a"}))
	assert.Equal(t, 1.0, Jaccard([]string{"a", "a", "b"}, []string{"b", "a"}))
	assert.Equal(t, 0.0, Jaccard([]string{"a"}, []string{"b"}))
}

func TestJaccard_Symmetric(t *testing.T) {
	sets := [][]string{
		{"covid", "vaccine", "effectiveness"},
		{"covid", "vaccine", "trial"},
		{"flood"},
		{},
		{"covid", "flood", "sanctions", "vaccine"},
	}
	for _, a := range sets {
		for _, b := range sets {
			s := Jaccard(a, b)
			assert.Equal(t, s, Jaccard(b, a))
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestFindSimilar_Threshold(t *testing.T) {
	stored := &models.VerificationRecord{TextHash: "h1", Keywords: []string{"covid", "vaccine", "trial"}}
	query := []string{"covid", "vaccine", "effectiveness"}

	assert.InDelta(t, 0.5, Jaccard(query, stored.Keywords), 1e-9)
	assert.Empty(t, FindSimilar(query, 0.7, []*models.VerificationRecord{stored}))

	got := FindSimilar(query, 0.4, []*models.VerificationRecord{stored})
	require.Len(t, got, 1)
	assert.Equal(t, "h1", got[0].Record.TextHash)
	assert.InDelta(t, 0.5, got[0].Score, 1e-9)
}

func TestFindSimilar_OrderAndFiltering(t *testing.T) {
	corpus := []*models.VerificationRecord{
		{TextHash: "c", Keywords: []string{"a", "b", "x"}},
		{TextHash: "b", Keywords: []string{"a", "b", "c"}},
		{TextHash: "a", Keywords: []string{"a", "b", "y"}},
		{TextHash: "empty"},
		nil,
		{TextHash: "z", Keywords: []string{"q"}},
	}
	got := FindSimilar([]string{"a", "b", "c"}, 0.3, corpus)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Record.TextHash)
	assert.Equal(t, "a", got[1].Record.TextHash)
	assert.Equal(t, "c", got[2].Record.TextHash)
	for _, m := range got {
		assert.GreaterOrEqual(t, m.Score, 0.3)
	}
}

func TestFindSimilar_EmptyQuery(t *testing.T) {
	corpus := []*models.VerificationRecord{{TextHash: "a", Keywords: []string{"a"}}}
	assert.Empty(t, FindSimilar(nil, 0, corpus))
}
