package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jonathan/reading-tracker/internal/llm"
	"github.com/jonathan/reading-tracker/internal/parsing"
	"github.com/jonathan/reading-tracker/internal/pipeline"
	"github.com/jonathan/reading-tracker/internal/server/middleware"
	"github.com/jonathan/reading-tracker/internal/signals"
	"github.com/jonathan/reading-tracker/internal/types"
)

// handleGenerateRecommendations runs the recommendation pipeline for the
// authenticated user and returns the curated batch.
func (s *Server) handleGenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	batch, err := s.pipeline.Generate(r.Context(), userID, req.RequestedCount)
	if err != nil {
		s.recommendationError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, batch)
}

// handleQuotaStatus reports the authenticated user's remaining daily
// generation quota without consuming any of it.
func (s *Server) handleQuotaStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	decision, err := s.pipeline.QuotaStatus(userID)
	if err != nil {
		log.Printf("Error reading quota status for user %s: %v", userID, err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to read quota status")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"remaining": decision.Remaining,
		"reset_at":  decision.ResetAt.UTC().Format(time.RFC3339),
	})
}

// recommendationError maps pipeline errors onto HTTP statuses. Every typed
// error in the taxonomy has exactly one status so clients can branch on it.
func (s *Server) recommendationError(w http.ResponseWriter, err error) {
	var quotaErr *pipeline.QuotaExceededError
	switch {
	case signals.IsInsufficientSignal(err):
		s.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &quotaErr):
		if !quotaErr.Unavailable && !quotaErr.ResetAt.IsZero() {
			retryAfter := int(time.Until(quotaErr.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		}
		s.errorResponse(w, http.StatusTooManyRequests, err.Error())
	case llm.IsTimeout(err):
		s.errorResponse(w, http.StatusGatewayTimeout, "Recommendation generation timed out")
	case llm.IsAuth(err):
		log.Printf("LLM auth failure: %v", err)
		s.errorResponse(w, http.StatusBadGateway, "Recommendation provider rejected the request")
	case llm.IsUpstream(err):
		log.Printf("LLM upstream failure: %v", err)
		s.errorResponse(w, http.StatusBadGateway, "Recommendation provider is unavailable")
	case parsing.IsMalformedResponse(err):
		log.Printf("Unusable completion: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate recommendations")
	default:
		log.Printf("Recommendation pipeline error: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate recommendations")
	}
}
