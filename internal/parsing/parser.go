// Package parsing turns raw model text into typed candidate recommendations.
//
// The model is asked for a fenced JSON array, but the boundary is schema-less
// free text, so parsing is strict-then-lenient: first a JSON Schema check on
// the cleaned payload, then a tolerant array decode with case-insensitive
// keys, and finally per-line object extraction. Only when every path yields
// zero entries does the call fail.
package parsing

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jonathan/reading-tracker/internal/llm"
	"github.com/jonathan/reading-tracker/internal/schemas"
	"github.com/jonathan/reading-tracker/internal/types"
)

// candidateSchema is the strict contract the prompt asks the model to honor.
const candidateSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["title", "author", "reason", "confidence"],
    "properties": {
      "title": {"type": "string", "minLength": 1},
      "author": {"type": "string", "minLength": 1},
      "genre": {"type": "string"},
      "reason": {"type": "string", "minLength": 1},
      "confidence": {"type": "number"}
    }
  }
}`

// strictCandidate mirrors the schema for direct decoding on the strict path.
type strictCandidate struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Genre      string  `json:"genre"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Parse extracts candidate recommendations from raw model output.
// Entries missing a mandatory field are dropped; a fully empty result is a
// MalformedResponseError. Parsing the same text twice yields identical lists.
func Parse(raw string) ([]types.CandidateRecommendation, error) {
	cleaned := llm.CleanJSONBlock(raw)

	// The payload may be wrapped in prose; isolate the first balanced array.
	payload := cleaned
	if !strings.HasPrefix(payload, "[") {
		if arr := llm.FirstJSONArray(cleaned); arr != "" {
			payload = arr
		}
	}

	if strings.HasPrefix(payload, "[") {
		if candidates, ok := parseStrict(payload); ok {
			return candidates, nil
		}
		if candidates := parseTolerantArray(payload); len(candidates) > 0 {
			return candidates, nil
		}
	}

	if candidates := parseLines(cleaned); len(candidates) > 0 {
		return candidates, nil
	}

	return nil, &MalformedResponseError{Message: "no well-formed recommendation entries found"}
}

// parseStrict validates the payload against the schema and decodes it directly.
func parseStrict(payload string) ([]types.CandidateRecommendation, bool) {
	if err := schemas.ValidateJSONString(candidateSchema, payload); err != nil {
		return nil, false
	}

	var strict []strictCandidate
	if err := json.Unmarshal([]byte(payload), &strict); err != nil {
		return nil, false
	}

	candidates := make([]types.CandidateRecommendation, 0, len(strict))
	for _, c := range strict {
		candidates = append(candidates, types.CandidateRecommendation{
			Title:           strings.TrimSpace(c.Title),
			Author:          strings.TrimSpace(c.Author),
			Genre:           strings.TrimSpace(c.Genre),
			Reason:          strings.TrimSpace(c.Reason),
			ConfidenceScore: clampConfidence(c.Confidence),
		})
	}
	return candidates, true
}

// parseTolerantArray decodes the array with loose key matching, dropping
// entries that lack a mandatory field.
func parseTolerantArray(payload string) []types.CandidateRecommendation {
	var entries []map[string]any
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil
	}

	candidates := make([]types.CandidateRecommendation, 0, len(entries))
	for _, entry := range entries {
		if candidate, ok := candidateFromMap(entry); ok {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// parseLines extracts one JSON object per line, for models that ignore the
// array instruction.
func parseLines(text string) []types.CandidateRecommendation {
	var candidates []types.CandidateRecommendation
	for _, line := range strings.Split(text, "\n") {
		start := strings.Index(line, "{")
		end := strings.LastIndex(line, "}")
		if start < 0 || end <= start {
			continue
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(line[start:end+1]), &entry); err != nil {
			continue
		}
		if candidate, ok := candidateFromMap(entry); ok {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// candidateFromMap builds a candidate from a decoded object, matching keys
// case-insensitively. Title, author, reason, and confidence are mandatory.
func candidateFromMap(entry map[string]any) (types.CandidateRecommendation, bool) {
	fields := make(map[string]any, len(entry))
	for key, value := range entry {
		fields[normalizeKey(key)] = value
	}

	title := stringField(fields, "title")
	author := stringField(fields, "author")
	reason := stringField(fields, "reason", "why", "explanation")
	confidence, hasConfidence := numberField(fields, "confidence", "confidencescore", "score")

	if title == "" || author == "" || reason == "" || !hasConfidence {
		return types.CandidateRecommendation{}, false
	}

	return types.CandidateRecommendation{
		Title:           title,
		Author:          author,
		Genre:           stringField(fields, "genre"),
		Reason:          reason,
		ConfidenceScore: clampConfidence(confidence),
	}, true
}

// normalizeKey lowercases a key and strips separators so "Confidence_Score"
// matches "confidencescore".
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	return key
}

func stringField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := fields[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func numberField(fields map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch value := fields[key].(type) {
		case float64:
			return value, true
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

// clampConfidence clamps scores into [0, 5] rather than rejecting the entry.
func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}
