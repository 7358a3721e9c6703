// Package prompting renders a PromptContext into the fixed-structure
// system/user message pair sent to the completion provider.
//
// Render is a pure function: same PromptContext in, same Prompt out. All
// wording lives in internal/prompts templates.
package prompting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/reading-tracker/internal/prompts"
	"github.com/jonathan/reading-tracker/internal/types"
)

const promptFile = "recommendations.json"

// Prompt is the rendered instruction/user message pair.
type Prompt struct {
	System string
	User   string
}

// Render builds the completion prompt from an aggregated context.
func Render(pctx *types.PromptContext) Prompt {
	count := strconv.Itoa(pctx.RequestedCount)

	system := prompts.Format(prompts.MustGet(promptFile, "recommend-system"), map[string]string{
		"Count": count,
	})

	user := prompts.Format(prompts.MustGet(promptFile, "recommend-user"), map[string]string{
		"Count":   count,
		"Signals": formatSignals(pctx.Signals),
		"Genres":  formatList(pctx.PreferredGenres),
		"Themes":  formatList(pctx.PreferredThemes),
		"Authors": formatList(pctx.FavoriteAuthors),
		"Owned":   formatOwned(pctx.Owned),
	})

	return Prompt{System: system, User: user}
}

// formatSignals renders one line per rated book, most recent first.
func formatSignals(signals []types.RatingSignal) string {
	if len(signals) == 0 {
		return "(none)"
	}

	var sb strings.Builder
	for _, signal := range signals {
		sb.WriteString(fmt.Sprintf("- %q by %s, rated %d/5", signal.Title, signal.Author, signal.Score))
		if len(signal.Genres) > 0 {
			sb.WriteString(" (" + strings.Join(signal.Genres, ", ") + ")")
		}
		if signal.Notes != "" {
			sb.WriteString(" - " + signal.Notes)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func formatOwned(owned []types.OwnedBook) string {
	if len(owned) == 0 {
		return "(none)"
	}

	var sb strings.Builder
	for _, book := range owned {
		sb.WriteString("- " + book.Title)
		if book.Author != "" {
			sb.WriteString(" by " + book.Author)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "(none stated)"
	}
	return strings.Join(items, ", ")
}
