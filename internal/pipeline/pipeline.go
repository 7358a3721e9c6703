// Package pipeline orchestrates one recommendation-generation request:
// quota gate, signal aggregation, prompt build, completion, parse, curate.
//
// Stages run sequentially within the request; each depends on the previous
// stage's output. No stage is retried automatically, and every stage failure
// maps to exactly one typed error from the taxonomy (quota, signal, llm,
// parsing packages) at this boundary.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/reading-tracker/internal/curation"
	"github.com/jonathan/reading-tracker/internal/llm"
	"github.com/jonathan/reading-tracker/internal/parsing"
	"github.com/jonathan/reading-tracker/internal/prompting"
	"github.com/jonathan/reading-tracker/internal/quota"
	"github.com/jonathan/reading-tracker/internal/signals"
	"github.com/jonathan/reading-tracker/internal/types"
)

// Config bounds one pipeline instance. Zero values fall back to the defaults
// below; the requested-count ceiling is deliberately configuration, not a
// literal in the flow.
type Config struct {
	MaxRequestedCount int
	MinSignals        int
	MaxSignals        int
	CompletionTimeout time.Duration
	Temperature       float32
	MaxTokens         int32
}

const (
	defaultMaxRequestedCount = 10
	defaultCompletionTimeout = 30 * time.Second
	defaultTemperature       = 0.7
	defaultMaxTokens         = 2048
)

func (c Config) withDefaults() Config {
	if c.MaxRequestedCount <= 0 {
		c.MaxRequestedCount = defaultMaxRequestedCount
	}
	if c.CompletionTimeout <= 0 {
		c.CompletionTimeout = defaultCompletionTimeout
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

// Pipeline generates recommendation batches for users.
type Pipeline struct {
	gate       quota.Gate
	aggregator *signals.Aggregator
	client     llm.Client
	cfg        Config
}

// New wires a pipeline from its collaborators.
func New(gate quota.Gate, store signals.LibraryStore, client llm.Client, cfg Config) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		gate:       gate,
		aggregator: signals.NewAggregator(store, cfg.MinSignals, cfg.MaxSignals),
		client:     client,
		cfg:        cfg,
	}
}

// Generate runs the full pipeline for one user request.
//
// The quota call is consumed before the completion call is issued, so a
// request cancelled mid-completion still counts against the quota. That is
// intentional: repeated cancellation must not become a quota bypass.
func (p *Pipeline) Generate(ctx context.Context, userID uuid.UUID, requestedCount int) (*types.RecommendationBatch, error) {
	requestedCount = p.clampCount(requestedCount)

	decision, err := p.gate.TryConsume(userID, time.Now())
	if err != nil {
		// Fail closed: an unreachable limiter denies, it never waves through.
		log.Printf("[pipeline] quota gate unavailable for user %s: %v", userID, err)
		return nil, &QuotaExceededError{Unavailable: true}
	}
	if !decision.Allowed {
		return nil, &QuotaExceededError{ResetAt: decision.ResetAt}
	}

	pctx, err := p.aggregator.BuildContext(ctx, userID, requestedCount)
	if err != nil {
		return nil, err
	}

	prompt := prompting.Render(pctx)

	cctx, cancel := context.WithTimeout(ctx, p.cfg.CompletionTimeout)
	defer cancel()
	completion, err := p.client.Complete(cctx, llm.CompletionRequest{
		System:      prompt.System,
		User:        prompt.User,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		Tier:        llm.TierStandard,
	})
	if err != nil {
		log.Printf("[pipeline] completion failed for user %s: %v", userID, err)
		return nil, err
	}

	candidates, err := parsing.Parse(completion.Content)
	if err != nil {
		log.Printf("[pipeline] parse failed for user %s: %v", userID, err)
		return nil, err
	}

	curated := curation.Curate(candidates, pctx.Owned, requestedCount)

	// Partial success is success: fewer than requested is a valid batch.
	return &types.RecommendationBatch{
		Recommendations: curated,
		GeneratedAt:     time.Now().UTC(),
		BooksAnalyzed:   len(pctx.Signals),
	}, nil
}

// QuotaStatus reports the user's remaining generation quota without consuming it.
func (p *Pipeline) QuotaStatus(userID uuid.UUID) (quota.Decision, error) {
	return p.gate.Status(userID, time.Now())
}

// MaxRequestedCount exposes the configured ceiling for request validation.
func (p *Pipeline) MaxRequestedCount() int {
	return p.cfg.MaxRequestedCount
}

func (p *Pipeline) clampCount(requestedCount int) int {
	if requestedCount < 1 {
		return 1
	}
	if requestedCount > p.cfg.MaxRequestedCount {
		return p.cfg.MaxRequestedCount
	}
	return requestedCount
}
