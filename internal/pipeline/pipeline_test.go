package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/reading-tracker/internal/llm"
	"github.com/jonathan/reading-tracker/internal/parsing"
	"github.com/jonathan/reading-tracker/internal/quota"
	"github.com/jonathan/reading-tracker/internal/signals"
	"github.com/jonathan/reading-tracker/internal/types"
)

// fakeGate implements quota.Gate.
type fakeGate struct {
	consumed int
	deny     bool
	resetAt  time.Time
	err      error
}

func (g *fakeGate) TryConsume(_ uuid.UUID, _ time.Time) (quota.Decision, error) {
	if g.err != nil {
		return quota.Decision{}, g.err
	}
	g.consumed++
	if g.deny {
		return quota.Decision{Allowed: false, ResetAt: g.resetAt}, nil
	}
	return quota.Decision{Allowed: true, Remaining: 5, ResetAt: g.resetAt}, nil
}

func (g *fakeGate) Status(_ uuid.UUID, _ time.Time) (quota.Decision, error) {
	return quota.Decision{Allowed: !g.deny, Remaining: 5, ResetAt: g.resetAt}, nil
}

// fakeStore implements signals.LibraryStore.
type fakeStore struct {
	rated []types.RatingSignal
	owned []types.OwnedBook
}

func (f *fakeStore) GetRatedBooks(_ context.Context, _ uuid.UUID) ([]types.RatingSignal, error) {
	return f.rated, nil
}

func (f *fakeStore) GetLibraryTitles(_ context.Context, _ uuid.UUID) ([]types.OwnedBook, error) {
	return f.owned, nil
}

func (f *fakeStore) GetPreferences(_ context.Context, _ uuid.UUID) (*types.Preferences, error) {
	return &types.Preferences{}, nil
}

// fakeClient implements llm.Client.
type fakeClient struct {
	content  string
	err      error
	lastUser string
}

func (c *fakeClient) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	c.lastUser = req.User
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Completion{Content: c.content, PromptTokens: 100, CompletionTokens: 200}, nil
}

func (c *fakeClient) GetModel(_ llm.ModelTier) string { return "fake-model" }
func (c *fakeClient) Close() error                    { return nil }

func ratedBooks(n int) []types.RatingSignal {
	rated := make([]types.RatingSignal, 0, n)
	for i := 0; i < n; i++ {
		rated = append(rated, types.RatingSignal{
			BookID: uuid.New(),
			Title:  fmt.Sprintf("Rated Book %d", i),
			Author: "Author",
			Score:  4,
		})
	}
	return rated
}

func candidateJSON(n int) string {
	entries := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, map[string]any{
			"title":      fmt.Sprintf("Candidate %d", i),
			"author":     "Author",
			"reason":     "Similar themes to your highest-rated books.",
			"confidence": float64(i%5) + 0.5,
		})
	}
	data, _ := json.Marshal(entries)
	return string(data)
}

func newTestPipeline(gate *fakeGate, store *fakeStore, client *fakeClient) *Pipeline {
	return New(gate, store, client, Config{})
}

func TestGenerate_FullBatch(t *testing.T) {
	// Scenario: 5 rated books, 10 requested, model returns 10 unowned candidates
	gate := &fakeGate{}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{content: candidateJSON(10)}

	batch, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 10)
	require.NoError(t, err)

	assert.Len(t, batch.Recommendations, 10)
	assert.Equal(t, 5, batch.BooksAnalyzed)
	assert.False(t, batch.GeneratedAt.IsZero())
	for i := 1; i < len(batch.Recommendations); i++ {
		assert.GreaterOrEqual(t,
			batch.Recommendations[i-1].ConfidenceScore,
			batch.Recommendations[i].ConfidenceScore)
	}
}

func TestGenerate_InsufficientSignal(t *testing.T) {
	gate := &fakeGate{}
	store := &fakeStore{rated: ratedBooks(2)}
	client := &fakeClient{content: candidateJSON(5)}

	_, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 5)
	assert.True(t, signals.IsInsufficientSignal(err))
}

func TestGenerate_QuotaExceeded(t *testing.T) {
	resetAt := time.Now().Add(3 * time.Hour)
	gate := &fakeGate{deny: true, resetAt: resetAt}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{content: candidateJSON(5)}

	_, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 5)
	require.Error(t, err)

	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, resetAt, quotaErr.ResetAt)
	assert.False(t, quotaErr.Unavailable)
}

func TestGenerate_QuotaGateFailsClosed(t *testing.T) {
	gate := &fakeGate{err: errors.New("store down")}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{content: candidateJSON(5)}

	_, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 5)
	require.Error(t, err)

	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.True(t, quotaErr.Unavailable)
}

func TestGenerate_OwnedCandidatesDropped(t *testing.T) {
	// Scenario: 10 candidates, 3 already in the library
	gate := &fakeGate{}
	store := &fakeStore{
		rated: ratedBooks(5),
		owned: []types.OwnedBook{
			{Title: "Candidate 0", Author: "Author"},
			{Title: "Candidate 1", Author: "Author"},
			{Title: "Candidate 2", Author: "Author"},
		},
	}
	client := &fakeClient{content: candidateJSON(10)}

	batch, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	assert.Len(t, batch.Recommendations, 7)
}

func TestGenerate_TimeoutConsumesQuota(t *testing.T) {
	gate := &fakeGate{}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{err: &llm.TimeoutError{Elapsed: 30 * time.Second}}

	batch, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 5)
	assert.Nil(t, batch)
	assert.True(t, llm.IsTimeout(err))
	// The slot was consumed before the call; cancellation is not a bypass
	assert.Equal(t, 1, gate.consumed)
}

func TestGenerate_UpstreamErrorPassesThrough(t *testing.T) {
	gate := &fakeGate{}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{err: &llm.UpstreamError{StatusCode: 503, Message: "overloaded"}}

	_, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 5)
	assert.True(t, llm.IsUpstream(err))
}

func TestGenerate_MalformedResponse(t *testing.T) {
	gate := &fakeGate{}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{content: "I'm sorry, I cannot produce recommendations right now."}

	_, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 5)
	assert.True(t, parsing.IsMalformedResponse(err))
}

func TestGenerate_ClampsRequestedCount(t *testing.T) {
	gate := &fakeGate{}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{content: candidateJSON(20)}

	batch, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 50)
	require.NoError(t, err)

	assert.Len(t, batch.Recommendations, 10)
	assert.Contains(t, client.lastUser, "Recommend 10 new books")
}

func TestGenerate_NoDuplicatePairsInBatch(t *testing.T) {
	gate := &fakeGate{}
	store := &fakeStore{rated: ratedBooks(5)}
	client := &fakeClient{content: `[
		{"title": "Same Book", "author": "Same Author", "reason": "r", "confidence": 3},
		{"title": "same book", "author": "SAME AUTHOR", "reason": "r", "confidence": 4},
		{"title": "Other", "author": "Someone", "reason": "r", "confidence": 2}
	]`}

	batch, err := newTestPipeline(gate, store, client).Generate(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	require.Len(t, batch.Recommendations, 2)
	assert.Equal(t, 4.0, batch.Recommendations[0].ConfidenceScore)
}
