// Package types provides type definitions for structured data used throughout the reading-tracker system.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RatingSignal is an immutable snapshot of one rated book, read at request time.
// It is owned by the signal aggregator for the duration of a single request and
// is never persisted separately from the source rating.
type RatingSignal struct {
	BookID uuid.UUID `json:"book_id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
	Genres []string  `json:"genres,omitempty"`
	Score  int       `json:"score"` // 1-5
	Notes  string    `json:"notes,omitempty"`
}

// OwnedBook is a (title, author) pair from the user's library, used for
// ownership filtering during curation.
type OwnedBook struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Preferences holds the user's stated reading preferences.
type Preferences struct {
	Genres  []string `json:"genres,omitempty"`
	Themes  []string `json:"themes,omitempty"`
	Authors []string `json:"authors,omitempty"`
}

// PromptContext is the aggregated feature summary handed to the prompt builder.
// Built fresh per call and discarded after the completion request is issued.
type PromptContext struct {
	UserID          uuid.UUID
	Signals         []RatingSignal
	PreferredGenres []string
	PreferredThemes []string
	FavoriteAuthors []string
	Owned           []OwnedBook
	RequestedCount  int
}

// CandidateRecommendation is a single recommendation as emitted by the model,
// after parsing and before or after curation.
type CandidateRecommendation struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre,omitempty"`
	Reason          string  `json:"reason"`
	ConfidenceScore float64 `json:"confidence_score"` // 0-5, possibly fractional
}

// RecommendationBatch is the unit returned to the caller. It is not persisted
// server-side beyond the response.
type RecommendationBatch struct {
	Recommendations []CandidateRecommendation `json:"recommendations"`
	GeneratedAt     time.Time                 `json:"generated_at"`
	BooksAnalyzed   int                       `json:"books_analyzed"`
}

// GenerateRequest is the request body for POST /recommendations.
// The validator tag enforces the absolute ceiling; the handler additionally
// clamps to the configured maximum.
type GenerateRequest struct {
	RequestedCount int `json:"requested_count" validate:"required,min=1,max=10"`
}

// Validate validates the GenerateRequest using the validator.
func (r *GenerateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
