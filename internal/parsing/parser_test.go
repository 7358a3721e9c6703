package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormed = `[
  {"title": "A Memory Called Empire", "author": "Arkady Martine", "genre": "science fiction", "reason": "Political intrigue like the space opera you rated highly.", "confidence": 4.5},
  {"title": "The Fifth Season", "author": "N.K. Jemisin", "reason": "Matches your preference for layered worldbuilding.", "confidence": 5}
]`

func TestParse_StrictArray(t *testing.T) {
	candidates, err := Parse(wellFormed)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "A Memory Called Empire", candidates[0].Title)
	assert.Equal(t, "Arkady Martine", candidates[0].Author)
	assert.Equal(t, "science fiction", candidates[0].Genre)
	assert.InDelta(t, 4.5, candidates[0].ConfidenceScore, 0.001)
	assert.Empty(t, candidates[1].Genre)
}

func TestParse_FencedBlock(t *testing.T) {
	candidates, err := Parse("```json\n" + wellFormed + "\n```")
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestParse_SurroundingProse(t *testing.T) {
	raw := "Here are some books you might enjoy!\n\n" + wellFormed + "\n\nHappy reading!"
	candidates, err := Parse(raw)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestParse_KeyCasingDifferences(t *testing.T) {
	raw := `[{"Title": "Ubik", "Author": "Philip K. Dick", "Reason": "Classic mind-bender.", "Confidence_Score": 3.8}]`
	candidates, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Ubik", candidates[0].Title)
	assert.InDelta(t, 3.8, candidates[0].ConfidenceScore, 0.001)
}

func TestParse_ObjectPerLine(t *testing.T) {
	raw := `{"title": "Solaris", "author": "Stanislaw Lem", "reason": "First contact done right.", "confidence": 4}
{"title": "Roadside Picnic", "author": "Arkady Strugatsky", "reason": "Alien visitation with a human lens.", "confidence": 4.2}`
	candidates, err := Parse(raw)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestParse_DropsEntriesMissingMandatoryFields(t *testing.T) {
	raw := `[
  {"title": "Solaris", "author": "Stanislaw Lem", "reason": "First contact done right.", "confidence": 4},
  {"title": "No Author", "reason": "Missing author.", "confidence": 3},
  {"title": "No Reason", "author": "Somebody", "confidence": 3}
]`
	candidates, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Solaris", candidates[0].Title)
}

func TestParse_ClampsConfidence(t *testing.T) {
	raw := `[
  {"title": "High", "author": "A", "reason": "r", "confidence": 9.5},
  {"title": "Low", "author": "B", "reason": "r", "confidence": -1}
]`
	candidates, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, 5.0, candidates[0].ConfidenceScore)
	assert.Equal(t, 0.0, candidates[1].ConfidenceScore)
}

func TestParse_ConfidenceAsString(t *testing.T) {
	raw := `[{"title": "Ubik", "author": "Philip K. Dick", "reason": "r", "confidence": "4.2"}]`
	candidates, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 4.2, candidates[0].ConfidenceScore, 0.001)
}

func TestParse_EmptyOutputFails(t *testing.T) {
	for _, raw := range []string{
		"",
		"Sorry, I can't help with that.",
		"[]",
		`[{"title": "Only Title"}]`,
	} {
		_, err := Parse(raw)
		require.Error(t, err, "input %q", raw)
		assert.True(t, IsMalformedResponse(err), "input %q", raw)
	}
}

func TestParse_Idempotent(t *testing.T) {
	raw := "Some prose first.\n" + wellFormed
	first, err := Parse(raw)
	require.NoError(t, err)
	second, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
