package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// geminiBaseURL is the hosted Generative Language API endpoint.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls Google's Generative Language API over REST.
type Gemini struct {
	model   string
	apiKey  string
	baseURL string
	rest    *restClient
	logger  *slog.Logger
}

// NewGemini constructs a Gemini provider. The API key is validated locally;
// an unknown model resolves to FallbackGeminiModel with a warning.
func NewGemini(cfg Config) (*Gemini, error) {
	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}

	model, fellBack, err := ResolveModel(ProviderGemini, cfg.Model)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if fellBack {
		logger.Warn("unknown model requested, using fallback",
			"provider", ProviderGemini,
			"requested", cfg.Model,
			"model", model)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiBaseURL
	}

	return &Gemini{
		model:   model,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		rest:    newRESTClient(cfg),
		logger:  logger,
	}, nil
}

// Name returns the provider identifier.
func (g *Gemini) Name() string { return ProviderGemini }

// Model returns the resolved model identifier.
func (g *Gemini) Model() string { return g.model }

// Wire types for the generateContent endpoint.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Complete sends the conversation to the generateContent endpoint. System
// messages are folded into systemInstruction; assistant turns map to the
// "model" role.
func (g *Gemini) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	const op = "Gemini.Complete"

	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("%s: no messages in request", op)
	}

	payload := geminiRequest{}

	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			payload.Contents = append(payload.Contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: m.Content}},
			})
		default:
			payload.Contents = append(payload.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}
	if len(system) > 0 {
		payload.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}},
		}
	}

	if req.Temperature != nil || req.TopP != nil || req.TopK != nil || req.MaxTokens != nil {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			TopK:            req.TopK,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	headers := map[string]string{"x-goog-api-key": g.apiKey}

	var resp geminiResponse
	if err := g.rest.postJSON(ctx, op, url, headers, payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoContent)
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	content := sb.String()
	if content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoContent)
	}

	return &CompletionResponse{
		Content:      content,
		FinishReason: normalizeGeminiFinish(candidate.FinishReason),
		Usage: TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

func normalizeGeminiFinish(reason string) string {
	switch reason {
	case "STOP", "":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return "content_filter"
	default:
		return strings.ToLower(reason)
	}
}
