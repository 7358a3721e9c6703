package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/reading-tracker/internal/types"
)

// fakeStore implements LibraryStore for tests.
type fakeStore struct {
	rated    []types.RatingSignal
	owned    []types.OwnedBook
	prefs    *types.Preferences
	ratedErr error
	prefsErr error
}

func (f *fakeStore) GetRatedBooks(_ context.Context, _ uuid.UUID) ([]types.RatingSignal, error) {
	return f.rated, f.ratedErr
}

func (f *fakeStore) GetLibraryTitles(_ context.Context, _ uuid.UUID) ([]types.OwnedBook, error) {
	return f.owned, nil
}

func (f *fakeStore) GetPreferences(_ context.Context, _ uuid.UUID) (*types.Preferences, error) {
	return f.prefs, f.prefsErr
}

func ratedBooks(n int) []types.RatingSignal {
	rated := make([]types.RatingSignal, 0, n)
	titles := []string{"Dune", "Hyperion", "The Dispossessed", "Blindsight", "Solaris", "Ubik", "Neuromancer"}
	for i := 0; i < n; i++ {
		rated = append(rated, types.RatingSignal{
			BookID: uuid.New(),
			Title:  titles[i%len(titles)],
			Author: "Author",
			Score:  4,
		})
	}
	return rated
}

func TestBuildContext_InsufficientSignal(t *testing.T) {
	store := &fakeStore{rated: ratedBooks(2)}
	agg := NewAggregator(store, 0, 0)

	_, err := agg.BuildContext(context.Background(), uuid.New(), 5)
	require.Error(t, err)

	var insufficient *InsufficientSignalError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Count)
	assert.Equal(t, DefaultMinSignals, insufficient.Minimum)
}

func TestBuildContext_UnratedBooksDoNotCount(t *testing.T) {
	rated := ratedBooks(3)
	rated[2].Score = 0 // present in the library but never scored
	store := &fakeStore{rated: rated}
	agg := NewAggregator(store, 0, 0)

	_, err := agg.BuildContext(context.Background(), uuid.New(), 5)
	assert.True(t, IsInsufficientSignal(err))
}

func TestBuildContext_Success(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{
		rated: ratedBooks(5),
		owned: []types.OwnedBook{{Title: "Dune", Author: "Frank Herbert"}},
		prefs: &types.Preferences{
			Genres:  []string{"science fiction"},
			Themes:  []string{"first contact"},
			Authors: []string{"Ursula K. Le Guin"},
		},
	}
	agg := NewAggregator(store, 0, 0)

	pctx, err := agg.BuildContext(context.Background(), userID, 10)
	require.NoError(t, err)

	assert.Equal(t, userID, pctx.UserID)
	assert.Len(t, pctx.Signals, 5)
	assert.Equal(t, 10, pctx.RequestedCount)
	assert.Equal(t, []string{"science fiction"}, pctx.PreferredGenres)
	assert.Equal(t, []string{"first contact"}, pctx.PreferredThemes)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, pctx.FavoriteAuthors)
	assert.Len(t, pctx.Owned, 1)
}

func TestBuildContext_CapsSignals(t *testing.T) {
	store := &fakeStore{rated: ratedBooks(40)}
	agg := NewAggregator(store, 0, 0)

	pctx, err := agg.BuildContext(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.Len(t, pctx.Signals, DefaultMaxSignals)
	// The cap keeps the head of the list, which the store orders most recent first
	assert.Equal(t, store.rated[0].BookID, pctx.Signals[0].BookID)
}

func TestBuildContext_NilPreferences(t *testing.T) {
	store := &fakeStore{rated: ratedBooks(3)}
	agg := NewAggregator(store, 0, 0)

	pctx, err := agg.BuildContext(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.Empty(t, pctx.PreferredGenres)
	assert.Empty(t, pctx.FavoriteAuthors)
}

func TestBuildContext_StoreError(t *testing.T) {
	store := &fakeStore{rated: ratedBooks(5), ratedErr: errors.New("connection refused")}
	agg := NewAggregator(store, 0, 0)

	_, err := agg.BuildContext(context.Background(), uuid.New(), 5)
	require.Error(t, err)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get rated books", storeErr.Op)
	assert.False(t, IsInsufficientSignal(err))
}
