// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/reading-tracker/internal/quota"
	"github.com/jonathan/reading-tracker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPromptContext outputs a human-readable summary of the signals that
// will feed the prompt.
func (p *Printer) PrintPromptContext(pctx *types.PromptContext) {
	if pctx == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Rated books:   %d\n", len(pctx.Signals)))
	sb.WriteString(fmt.Sprintf("Library size:  %d\n", len(pctx.Owned)))
	sb.WriteString(fmt.Sprintf("Requested:     %d\n", pctx.RequestedCount))

	if len(pctx.Signals) > 0 {
		sb.WriteString("\nTop signals:\n")
		count := min(len(pctx.Signals), maxItemsToShow)
		for i := 0; i < count; i++ {
			signal := pctx.Signals[i]
			title := signal.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s (%d/5)\n", title, signal.Score))
		}
		if len(pctx.Signals) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(pctx.Signals)-maxItemsToShow))
		}
	}

	if len(pctx.PreferredGenres) > 0 {
		genres := strings.Join(pctx.PreferredGenres, ", ")
		if len(genres) > 45 {
			genres = genres[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("\nGenres: %s\n", genres))
	}

	p.printBox("PROMPT CONTEXT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendations outputs the curated recommendation batch.
func (p *Printer) PrintRecommendations(batch *types.RecommendationBatch) {
	if batch == nil || len(batch.Recommendations) == 0 {
		//nolint:errcheck // writing to stdout; errors are not recoverable
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO RECOMMENDATIONS GENERATED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Based on %d rated books:\n\n", batch.BooksAnalyzed))

	for i, rec := range batch.Recommendations {
		title := rec.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("    by %s", rec.Author))
		if rec.Genre != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", rec.Genre))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("    Confidence: %.1f/5\n", rec.ConfidenceScore))
		reason := rec.Reason
		if len(reason) > 50 {
			reason = reason[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("    %s\n", reason))
		if i < len(batch.Recommendations)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RECOMMENDATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuotaStatus outputs the remaining daily generation quota.
func (p *Printer) PrintQuotaStatus(decision quota.Decision) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Remaining today: %d\n", decision.Remaining))
	if !decision.ResetAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Window resets:   %s", decision.ResetAt.UTC().Format(time.RFC3339)))
	} else {
		sb.WriteString("Window resets:   on first call")
	}

	p.printBox("GENERATION QUOTA", sb.String())
}
