// Package signals reduces a user's rating history to a compact feature summary
// suitable for prompting.
package signals

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/reading-tracker/internal/types"
)

// DefaultMinSignals mirrors the minimum published by the UI: recommendations
// require at least three rated books.
const DefaultMinSignals = 3

// DefaultMaxSignals caps how many ratings are included in a prompt to bound
// its size.
const DefaultMaxSignals = 25

// LibraryStore is the read surface the aggregator consumes. Implementations
// must return rated books most-recently-rated first.
type LibraryStore interface {
	// GetRatedBooks returns the user's books that carry a rating with score > 0.
	GetRatedBooks(ctx context.Context, userID uuid.UUID) ([]types.RatingSignal, error)
	// GetLibraryTitles returns every (title, author) pair in the user's library.
	GetLibraryTitles(ctx context.Context, userID uuid.UUID) ([]types.OwnedBook, error)
	// GetPreferences returns the user's stated preference lists. A user with no
	// stored preferences yields an empty Preferences, not an error.
	GetPreferences(ctx context.Context, userID uuid.UUID) (*types.Preferences, error)
}

// Aggregator builds PromptContexts from the library store.
type Aggregator struct {
	store      LibraryStore
	minSignals int
	maxSignals int
}

// NewAggregator creates an Aggregator. Non-positive bounds fall back to the
// package defaults.
func NewAggregator(store LibraryStore, minSignals, maxSignals int) *Aggregator {
	if minSignals <= 0 {
		minSignals = DefaultMinSignals
	}
	if maxSignals <= 0 {
		maxSignals = DefaultMaxSignals
	}
	return &Aggregator{store: store, minSignals: minSignals, maxSignals: maxSignals}
}

// BuildContext reads the user's ratings, library titles, and preferences and
// reduces them to a PromptContext for one request. The three store reads are
// independent and run concurrently.
func (a *Aggregator) BuildContext(ctx context.Context, userID uuid.UUID, requestedCount int) (*types.PromptContext, error) {
	var (
		rated []types.RatingSignal
		owned []types.OwnedBook
		prefs *types.Preferences
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rated, err = a.store.GetRatedBooks(gCtx, userID)
		if err != nil {
			return &StoreError{Op: "get rated books", Cause: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		owned, err = a.store.GetLibraryTitles(gCtx, userID)
		if err != nil {
			return &StoreError{Op: "get library titles", Cause: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prefs, err = a.store.GetPreferences(gCtx, userID)
		if err != nil {
			return &StoreError{Op: "get preferences", Cause: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	usable := filterRated(rated)
	if len(usable) < a.minSignals {
		return nil, &InsufficientSignalError{Count: len(usable), Minimum: a.minSignals}
	}

	// Most-recent-first ordering comes from the store; cap to bound prompt size.
	if len(usable) > a.maxSignals {
		usable = usable[:a.maxSignals]
	}

	if prefs == nil {
		prefs = &types.Preferences{}
	}

	return &types.PromptContext{
		UserID:          userID,
		Signals:         usable,
		PreferredGenres: prefs.Genres,
		PreferredThemes: prefs.Themes,
		FavoriteAuthors: prefs.Authors,
		Owned:           owned,
		RequestedCount:  requestedCount,
	}, nil
}

// filterRated drops ratings without a positive score or without enough
// identity to prompt with.
func filterRated(rated []types.RatingSignal) []types.RatingSignal {
	usable := make([]types.RatingSignal, 0, len(rated))
	for _, signal := range rated {
		if signal.Score <= 0 || signal.Title == "" {
			continue
		}
		usable = append(usable, signal)
	}
	return usable
}
