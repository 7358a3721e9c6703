// Package curation filters, deduplicates, and ranks parsed candidates into
// the final recommendation list.
package curation

import (
	"sort"
	"strings"

	"github.com/jonathan/reading-tracker/internal/types"
)

// Curate applies ownership filtering, (title, author) deduplication,
// confidence clamping, and confidence ranking, then truncates to
// requestedCount.
//
// The result is never padded: fewer than requestedCount entries is a valid
// outcome. Sorting is stable, so candidates tied on confidence keep the
// model's output order.
func Curate(candidates []types.CandidateRecommendation, alreadyOwned []types.OwnedBook, requestedCount int) []types.CandidateRecommendation {
	owned := make(map[string]struct{}, len(alreadyOwned))
	for _, book := range alreadyOwned {
		owned[bookKey(book.Title, book.Author)] = struct{}{}
	}

	// Drop owned titles, then dedup keeping the highest-confidence instance.
	// Order of first appearance is preserved for the stable sort below.
	seen := make(map[string]int)
	deduped := make([]types.CandidateRecommendation, 0, len(candidates))
	for _, candidate := range candidates {
		key := bookKey(candidate.Title, candidate.Author)
		if _, isOwned := owned[key]; isOwned {
			continue
		}
		candidate.ConfidenceScore = clampConfidence(candidate.ConfidenceScore)
		if idx, exists := seen[key]; exists {
			if candidate.ConfidenceScore > deduped[idx].ConfidenceScore {
				deduped[idx] = candidate
			}
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, candidate)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].ConfidenceScore > deduped[j].ConfidenceScore
	})

	if requestedCount > 0 && len(deduped) > requestedCount {
		deduped = deduped[:requestedCount]
	}
	return deduped
}

// bookKey builds the case-insensitive (title, author) identity used for both
// ownership filtering and deduplication.
func bookKey(title, author string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(author))
}

// clampConfidence keeps scores inside [0, 5] even if an uncurated source
// hands us out-of-range values.
func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}
