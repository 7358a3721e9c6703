package llm

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CompletionRequest describes a single system/user completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int32
	Tier        ModelTier
}

// Completion is the raw result of one completion call. Ephemeral; it exists
// only between the client and the response parser.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Client is an abstraction over LLM providers.
//
// One call, one outcome: implementations never retry internally. Retries are
// the caller's responsibility so a failed call cannot silently multiply cost.
type Client interface {
	// Complete issues a single chat-completion call bounded by ctx.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	// case ProviderOpenAI:
	//     return NewOpenAIClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &AuthError{Message: "API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &AuthError{Message: "failed to create Gemini client", Cause: err}
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Complete issues one GenerateContent call with the request's system
// instruction and user message. Cancellation of ctx cancels the in-flight
// call; expiry of its deadline surfaces as TimeoutError.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, &UpstreamError{StatusCode: http.StatusInternalServerError, Message: "no model configured for tier " + string(req.Tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return nil, classifyError(err, time.Since(start))
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	completion := &Completion{Content: text}
	if resp.UsageMetadata != nil {
		completion.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completion.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	// Token counts are logged, not persisted, for cost observability.
	log.Printf("[llm] model=%s prompt_tokens=%d completion_tokens=%d elapsed=%s",
		modelName, completion.PromptTokens, completion.CompletionTokens, time.Since(start).Round(time.Millisecond))

	return completion, nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// classifyError maps SDK and transport failures onto the package's typed
// errors so nothing provider-specific leaks past this package.
func classifyError(err error, elapsed time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Elapsed: elapsed}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Message: gerr.Message, Cause: err}
		default:
			return &UpstreamError{StatusCode: gerr.Code, Message: gerr.Message, Cause: err}
		}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return &TimeoutError{Elapsed: elapsed}
		case codes.Unauthenticated, codes.PermissionDenied:
			return &AuthError{Message: st.Message(), Cause: err}
		default:
			return &UpstreamError{StatusCode: httpStatusFromCode(st.Code()), Message: st.Message(), Cause: err}
		}
	}

	return &UpstreamError{StatusCode: http.StatusBadGateway, Message: "completion call failed", Cause: err}
}

// httpStatusFromCode translates gRPC codes into the nearest HTTP status.
func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Internal, codes.DataLoss:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &UpstreamError{StatusCode: http.StatusBadGateway, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &UpstreamError{StatusCode: http.StatusBadGateway, Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &UpstreamError{StatusCode: http.StatusBadGateway, Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
