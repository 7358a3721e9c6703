package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/reading-tracker/internal/types"
)

func candidate(title, author string, confidence float64) types.CandidateRecommendation {
	return types.CandidateRecommendation{
		Title:           title,
		Author:          author,
		Reason:          "because",
		ConfidenceScore: confidence,
	}
}

func TestCurate_DropsOwnedBooks(t *testing.T) {
	candidates := []types.CandidateRecommendation{
		candidate("Dune", "Frank Herbert", 5),
		candidate("Hyperion", "Dan Simmons", 4),
	}
	owned := []types.OwnedBook{{Title: "Dune", Author: "Frank Herbert"}}

	result := Curate(candidates, owned, 10)
	require.Len(t, result, 1)
	assert.Equal(t, "Hyperion", result[0].Title)
}

func TestCurate_OwnershipMatchIsCaseInsensitive(t *testing.T) {
	candidates := []types.CandidateRecommendation{
		candidate("DUNE", "frank herbert", 5),
	}
	owned := []types.OwnedBook{{Title: "Dune", Author: "Frank Herbert"}}

	assert.Empty(t, Curate(candidates, owned, 10))
}

func TestCurate_DedupKeepsHighestConfidence(t *testing.T) {
	candidates := []types.CandidateRecommendation{
		candidate("Hyperion", "Dan Simmons", 3.5),
		candidate("hyperion", "dan simmons", 4.5),
		candidate("Ubik", "Philip K. Dick", 4),
	}

	result := Curate(candidates, nil, 10)
	require.Len(t, result, 2)
	assert.Equal(t, 4.5, result[0].ConfidenceScore)
	assert.Equal(t, "hyperion", result[0].Title)
}

func TestCurate_SortsByConfidenceDescending(t *testing.T) {
	candidates := []types.CandidateRecommendation{
		candidate("Low", "A", 1),
		candidate("High", "B", 5),
		candidate("Mid", "C", 3),
	}

	result := Curate(candidates, nil, 10)
	require.Len(t, result, 3)
	assert.Equal(t, "High", result[0].Title)
	assert.Equal(t, "Mid", result[1].Title)
	assert.Equal(t, "Low", result[2].Title)
}

func TestCurate_StableOnTies(t *testing.T) {
	candidates := []types.CandidateRecommendation{
		candidate("First", "A", 4),
		candidate("Second", "B", 4),
		candidate("Third", "C", 4),
	}

	result := Curate(candidates, nil, 10)
	require.Len(t, result, 3)
	assert.Equal(t, "First", result[0].Title)
	assert.Equal(t, "Second", result[1].Title)
	assert.Equal(t, "Third", result[2].Title)
}

func TestCurate_TruncatesToRequestedCount(t *testing.T) {
	var candidates []types.CandidateRecommendation
	for i := 0; i < 10; i++ {
		candidates = append(candidates, candidate(string(rune('A'+i)), "Author", float64(i)/2))
	}

	result := Curate(candidates, nil, 3)
	require.Len(t, result, 3)
	assert.Equal(t, 4.5, result[0].ConfidenceScore)
}

func TestCurate_ClampsConfidence(t *testing.T) {
	candidates := []types.CandidateRecommendation{
		candidate("Too High", "A", 12),
		candidate("Too Low", "B", -3),
	}

	result := Curate(candidates, nil, 10)
	require.Len(t, result, 2)
	for _, rec := range result {
		assert.GreaterOrEqual(t, rec.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, rec.ConfidenceScore, 5.0)
	}
}

func TestCurate_NeverPads(t *testing.T) {
	candidates := []types.CandidateRecommendation{
		candidate("Only", "One", 4),
	}

	result := Curate(candidates, nil, 10)
	assert.Len(t, result, 1)
}

func TestCurate_OwnedThreeOfTen(t *testing.T) {
	var candidates []types.CandidateRecommendation
	for i := 0; i < 10; i++ {
		candidates = append(candidates, candidate(string(rune('A'+i)), "Author", float64(i)))
	}
	owned := []types.OwnedBook{
		{Title: "A", Author: "Author"},
		{Title: "B", Author: "Author"},
		{Title: "C", Author: "Author"},
	}

	result := Curate(candidates, owned, 10)
	assert.Len(t, result, 7)
	for _, rec := range result {
		assert.NotContains(t, []string{"A", "B", "C"}, rec.Title)
	}
}
