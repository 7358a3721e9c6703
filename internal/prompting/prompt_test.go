package prompting

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/reading-tracker/internal/types"
)

func testContext() *types.PromptContext {
	return &types.PromptContext{
		UserID: uuid.New(),
		Signals: []types.RatingSignal{
			{Title: "Hyperion", Author: "Dan Simmons", Score: 5, Genres: []string{"science fiction"}},
			{Title: "Piranesi", Author: "Susanna Clarke", Score: 4, Notes: "loved the atmosphere"},
		},
		PreferredGenres: []string{"science fiction", "fantasy"},
		FavoriteAuthors: []string{"Ursula K. Le Guin"},
		Owned: []types.OwnedBook{
			{Title: "Hyperion", Author: "Dan Simmons"},
			{Title: "Piranesi", Author: "Susanna Clarke"},
		},
		RequestedCount: 5,
	}
}

func TestRender_Deterministic(t *testing.T) {
	pctx := testContext()

	first := Render(pctx)
	second := Render(pctx)

	assert.Equal(t, first, second)
}

func TestRender_SystemMessage(t *testing.T) {
	prompt := Render(testContext())

	require.NotEmpty(t, prompt.System)
	// Output contract: exact count, structured output, ownership exclusion
	assert.Contains(t, prompt.System, "exactly 5 books")
	assert.Contains(t, prompt.System, "JSON array")
	assert.Contains(t, prompt.System, "ALREADY OWNED")
	assert.Contains(t, prompt.System, "confidence")
}

func TestRender_UserMessage(t *testing.T) {
	prompt := Render(testContext())

	assert.Contains(t, prompt.User, `"Hyperion" by Dan Simmons, rated 5/5`)
	assert.Contains(t, prompt.User, "loved the atmosphere")
	assert.Contains(t, prompt.User, "science fiction, fantasy")
	assert.Contains(t, prompt.User, "Ursula K. Le Guin")
	assert.Contains(t, prompt.User, "- Hyperion by Dan Simmons")
	assert.Contains(t, prompt.User, "Recommend 5 new books")
}

func TestRender_EmptyLists(t *testing.T) {
	pctx := testContext()
	pctx.PreferredGenres = nil
	pctx.PreferredThemes = nil
	pctx.FavoriteAuthors = nil
	pctx.Owned = nil

	prompt := Render(pctx)

	assert.Contains(t, prompt.User, "(none stated)")
	assert.Contains(t, prompt.User, "(none)")
}
